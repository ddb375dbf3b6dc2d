package expoconfig

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ManifestPath is appended to the server URL to form updates.url.
const ManifestPath = "/manifest"

// ErrNoUpdatesURL is returned when updates.url is not configured.
var ErrNoUpdatesURL = errors.New("Update url is not setup in your config. Please run 'eoas init' to setup the update url")

var updateURLPattern = regexp.MustCompile(`^https?://[^/]+$`)

// IsValidUpdateURL reports whether s is a bare http(s) origin with no path.
func IsValidUpdateURL(s string) bool {
	return updateURLPattern.MatchString(s)
}

// ServerURL returns the origin of updates.url: scheme, host and any
// non-default port.
func (c Config) ServerURL() (string, error) {
	raw := c.UpdatesURL()
	if raw == "" {
		return "", ErrNoUpdatesURL
	}
	return Origin(raw)
}

// Origin returns the origin of an absolute URL.
func Origin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("Invalid URL: %s", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host, nil
}
