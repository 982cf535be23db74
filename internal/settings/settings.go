// Package settings holds the user preferences the dashboard core reads:
// the API base URL override and the auto-refresh switch. The core only reads
// them; the settings UI owns writes.
package settings

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	KeyAPIBaseURL      = "api_base_url"
	KeyAutoRefresh     = "auto_refresh"
	KeyRefreshInterval = "refresh_interval"
	KeyNotifications   = "notifications"
	KeyTheme           = "theme"
)

// Keys lists every key the dashboard understands.
var Keys = []string{KeyAPIBaseURL, KeyAutoRefresh, KeyRefreshInterval, KeyNotifications, KeyTheme}

// Known reports whether key is one of Keys.
func Known(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Provider is the injected configuration source.
type Provider interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Memory is a thread-safe in-process Provider.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory(initial map[string]string) *Memory {
	m := &Memory{values: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.values[k] = v
	}
	return m
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Bool reads a boolean preference. Only an explicit "false" (or "0", "off",
// "no") disables it; anything else, including absence, yields def.
func Bool(p Provider, key string, def bool) bool {
	if p == nil {
		return def
	}
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "off", "no":
		return false
	case "true", "1", "on", "yes":
		return true
	}
	return def
}

// Duration reads a duration preference. Bare integers are milliseconds.
func Duration(p Provider, key string, def time.Duration) time.Duration {
	if p == nil {
		return def
	}
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

// String reads a string preference, returning "" when absent or blank.
func String(p Provider, key string) string {
	if p == nil {
		return ""
	}
	v, _ := p.Get(key)
	return strings.TrimSpace(v)
}
