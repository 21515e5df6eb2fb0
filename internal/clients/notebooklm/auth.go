package notebooklm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/citebridge/citebridge/internal/models"
)

// EnvAuthJSON lets deployments inject the auth state directly instead of
// pointing at a file on disk.
const EnvAuthJSON = "NOTEBOOKLM_AUTH_JSON"

// AuthTokens holds the session material exported by the browser login
// flow (a Playwright-style storage_state.json).
type AuthTokens struct {
	Cookies []Cookie `json:"cookies"`
}

// Cookie is one entry from the storage state.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// DefaultAuthPath returns the conventional location of the storage state
// file written by the login flow.
func DefaultAuthPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".notebooklm", "storage_state.json")
}

// LoadAuth reads auth tokens from the environment, the given path, or
// the default location, in that order. Returns ErrNotAuthenticated when
// nothing is available.
func LoadAuth(path string) (*AuthTokens, error) {
	if raw := strings.TrimSpace(os.Getenv(EnvAuthJSON)); raw != "" {
		return parseAuth([]byte(raw))
	}

	if path == "" {
		path = DefaultAuthPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no auth state at %s: %w", path, models.ErrNotAuthenticated)
		}
		return nil, fmt.Errorf("read auth state: %w", err)
	}
	return parseAuth(data)
}

func parseAuth(data []byte) (*AuthTokens, error) {
	var auth AuthTokens
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("parse auth state: %w", err)
	}
	if len(auth.Cookies) == 0 {
		return nil, fmt.Errorf("auth state has no cookies: %w", models.ErrNotAuthenticated)
	}
	return &auth, nil
}

// IsAuthenticated reports whether auth material exists without loading it.
func IsAuthenticated(path string) bool {
	if strings.TrimSpace(os.Getenv(EnvAuthJSON)) != "" {
		return true
	}
	if path == "" {
		path = DefaultAuthPath()
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CookieHeader renders the cookies as a single Cookie header value.
func (a *AuthTokens) CookieHeader() string {
	pairs := make([]string, 0, len(a.Cookies))
	for _, c := range a.Cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}
