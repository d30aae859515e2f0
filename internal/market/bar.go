package market

import (
	"sort"
	"time"
)

// Bar is a single daily OHLCV record.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a price history ordered ascending by time with no duplicate
// timestamps. Construct through NewSeries to keep the invariant.
type Series struct {
	Ticker string
	Bars   []Bar
}

// NewSeries sorts bars ascending and drops duplicate timestamps, keeping
// the last occurrence.
func NewSeries(ticker string, bars []Bar) Series {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	deduped := sorted[:0]
	for _, b := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return Series{Ticker: ticker, Bars: deduped}
}

func (s Series) Len() int { return len(s.Bars) }

func (s Series) Empty() bool { return len(s.Bars) == 0 }

func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Returns computes simple daily returns close[i]/close[i-1] - 1.
// Bars with a non-positive previous close are skipped.
func (s Series) Returns() []float64 {
	if len(s.Bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s.Bars)-1)
	for i := 1; i < len(s.Bars); i++ {
		prev := s.Bars[i-1].Close
		if prev <= 0 {
			continue
		}
		out = append(out, s.Bars[i].Close/prev-1)
	}
	return out
}

// LastClose returns the latest close, or 0 when the series is empty.
func (s Series) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// CloseOn returns the close for the given date. When no bar matches it
// falls back to the nearest bar within tolerance days, preferring earlier
// bars. ok reports whether any bar qualified.
func (s Series) CloseOn(date time.Time, toleranceDays int) (price float64, ok bool) {
	day := date.Truncate(24 * time.Hour)
	bestDiff := time.Duration(1<<63 - 1)
	for _, b := range s.Bars {
		diff := day.Sub(b.Time.Truncate(24 * time.Hour))
		if diff < 0 {
			diff = -diff
		}
		if diff <= time.Duration(toleranceDays)*24*time.Hour && diff < bestDiff {
			bestDiff = diff
			price = b.Close
			ok = true
		}
	}
	return price, ok
}

// Window returns the sub-series with bars in [start, end] inclusive.
func (s Series) Window(start, end time.Time) Series {
	out := Series{Ticker: s.Ticker}
	for _, b := range s.Bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out.Bars = append(out.Bars, b)
	}
	return out
}
