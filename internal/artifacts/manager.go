// Package artifacts caches execution details on disk so repeated drill-downs
// do not hit the telemetry API.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/testpulse/dashboard/internal/telemetry"
)

type Manager struct {
	cacheDir string
	cacheTTL time.Duration
}

func NewManager(cacheDir string, cacheTTL time.Duration) *Manager {
	return &Manager{
		cacheDir: cacheDir,
		cacheTTL: cacheTTL,
	}
}

func (m *Manager) path(executionID string) (string, error) {
	name := url.PathEscape(executionID) + ".json"
	p := filepath.Join(m.cacheDir, name)
	if !strings.HasPrefix(p, filepath.Clean(m.cacheDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal execution id: %q", executionID)
	}
	return p, nil
}

// GetCachedDetail returns the cached detail, or nil when it is missing or
// expired. Expired entries are removed.
func (m *Manager) GetCachedDetail(executionID string) (*telemetry.ExecutionDetail, error) {
	path, err := m.path(executionID)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if time.Since(info.ModTime()) > m.cacheTTL {
		os.Remove(path)
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d telemetry.ExecutionDetail
	if err := json.Unmarshal(data, &d); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to decode cached detail: %w", err)
	}
	return &d, nil
}

// SaveDetail stores d under executionID, the id it was requested by.
func (m *Manager) SaveDetail(executionID string, d *telemetry.ExecutionDetail) error {
	path, err := m.path(executionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode detail: %w", err)
	}

	tmp, err := os.CreateTemp(m.cacheDir, ".detail-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CachingClient serves execution details from a Manager before asking the
// wrapped client. Failures are never cached.
type CachingClient struct {
	telemetry.Client
	cache *Manager
}

func NewCachingClient(c telemetry.Client, cache *Manager) *CachingClient {
	return &CachingClient{Client: c, cache: cache}
}

func (c *CachingClient) FetchExecutionDetail(ctx context.Context, id string) (*telemetry.ExecutionDetail, error) {
	if d, err := c.cache.GetCachedDetail(id); err != nil {
		slog.Warn("artifacts: cache read failed", "id", id, "error", err)
	} else if d != nil {
		return d, nil
	}

	d, err := c.Client.FetchExecutionDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.ID == "" {
		d.ID = id
	}
	if err := c.cache.SaveDetail(id, d); err != nil {
		slog.Warn("artifacts: cache write failed", "id", id, "error", err)
	}
	return d, nil
}

// Health forwards to the wrapped client when it reports backend health.
func (c *CachingClient) Health(ctx context.Context) error {
	if hc, ok := c.Client.(interface{ Health(context.Context) error }); ok {
		return hc.Health(ctx)
	}
	return nil
}
