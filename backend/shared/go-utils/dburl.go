// go-utils/dburl.go

package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// WithIsolatedRole rewrites baseURL to log in as the per-run role
// "<runnerID>-<runNumber>", so parallel CI runs against a shared database
// each see only their own schema. The password is kept as is.
func WithIsolatedRole(baseURL, runnerID, runNumber string) (string, error) {
	if runnerID == "" || runNumber == "" {
		return "", fmt.Errorf("runnerID and runNumber must be non-empty")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid DB URL scheme %q", u.Scheme)
	}

	role := strings.ToLower(runnerID + "-" + runNumber)
	password, _ := u.User.Password()
	u.User = url.UserPassword(role, password)

	return u.String(), nil
}
