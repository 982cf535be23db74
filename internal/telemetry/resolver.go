package telemetry

import (
	"os"
	"strings"

	"github.com/testpulse/dashboard/internal/settings"
)

const (
	LocalBaseURL    = "http://localhost:5001/api"
	RelativeBaseURL = "/api"
)

// Resolver picks the API base URL. It is consulted on every request so a
// changed override applies without a restart.
type Resolver struct {
	// Settings supplies the user override (settings.KeyAPIBaseURL).
	Settings settings.Provider
	// EnvURL is the environment-provided default (DASHBOARD_API_URL).
	EnvURL string
	// Origin is joined onto the relative path when neither of the above is set
	// and the dashboard is not running locally.
	Origin string
	// Hostname reports the host the dashboard runs on; os.Hostname when nil.
	Hostname func() string
}

// BaseURL resolves in order: settings override, environment default,
// hostname heuristic.
func (r *Resolver) BaseURL() string {
	if u := settings.String(r.Settings, settings.KeyAPIBaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if u := strings.TrimSpace(r.EnvURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if isLocalHost(r.hostname()) {
		return LocalBaseURL
	}
	if r.Origin != "" {
		return strings.TrimRight(r.Origin, "/") + RelativeBaseURL
	}
	return RelativeBaseURL
}

func (r *Resolver) hostname() string {
	if r.Hostname != nil {
		return r.Hostname()
	}
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}

func isLocalHost(h string) bool {
	switch strings.ToLower(strings.TrimSpace(h)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
