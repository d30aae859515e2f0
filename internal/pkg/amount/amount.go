// Package amount holds the exact-arithmetic share math used by the
// trade ledger. Clipping a buy to available cash must not round up, so
// the division runs on decimals rather than floats.
package amount

import (
	"github.com/shopspring/decimal"
)

// MaxShares returns the largest whole share count purchasable with cash
// at the given price. Zero when price or cash is non-positive.
func MaxShares(cash, price float64) int {
	if price <= 0 || cash <= 0 {
		return 0
	}
	n := decimal.NewFromFloat(cash).Div(decimal.NewFromFloat(price)).Floor()
	return int(n.IntPart())
}

// MaxSharesWithMargin returns the largest whole share count shortable
// when each share posts price*marginRequirement of collateral from cash.
func MaxSharesWithMargin(cash, price, marginRequirement float64) int {
	if price <= 0 || cash <= 0 || marginRequirement <= 0 {
		return 0
	}
	perShare := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(marginRequirement))
	if perShare.IsZero() {
		return 0
	}
	n := decimal.NewFromFloat(cash).Div(perShare).Floor()
	return int(n.IntPart())
}

// WeightedAverage returns the weighted-average price of an existing lot
// and a new lot: (oldQty*oldPrice + newQty*newPrice) / (oldQty+newQty).
func WeightedAverage(oldQty int, oldPrice float64, newQty int, newPrice float64) float64 {
	total := oldQty + newQty
	if total <= 0 {
		return 0
	}
	oldCost := decimal.NewFromInt(int64(oldQty)).Mul(decimal.NewFromFloat(oldPrice))
	newCost := decimal.NewFromInt(int64(newQty)).Mul(decimal.NewFromFloat(newPrice))
	avg, _ := oldCost.Add(newCost).Div(decimal.NewFromInt(int64(total))).Float64()
	return avg
}
