package config

import (
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"mixgo/internal/logger"
)

// ChangeListener 在配置变更时收到新配置。
type ChangeListener func(*Config)

// Watcher 监听配置文件变化并热更新日志级别。其余字段变更只
// 通知订阅者，不在运行中自动替换依赖。
type Watcher struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	current   *Config
	listeners []ChangeListener
}

// NewWatcher 读取配置并开始监听 FS 事件。
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	w := &Watcher{path: path, v: v, current: cfg}
	v.OnConfigChange(func(evt fsnotify.Event) {
		next, err := Load(w.path)
		if err != nil {
			logger.Errorf("config reload failed (%s): %v", evt.Name, err)
			return
		}
		w.apply(next)
	})
	v.WatchConfig()
	return w, nil
}

// Current 返回最近一次成功加载的配置。
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe 注册变更监听器。
func (w *Watcher) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

func (w *Watcher) apply(next *Config) {
	w.mu.Lock()
	prev := w.current
	w.current = next
	listeners := append([]ChangeListener(nil), w.listeners...)
	w.mu.Unlock()

	if prev == nil || !strings.EqualFold(prev.App.LogLevel, next.App.LogLevel) {
		logger.SetLevel(next.App.LogLevel)
		logger.Infof("日志级别热更新为 %s", next.App.LogLevel)
	}
	for _, fn := range listeners {
		fn(next)
	}
}
