// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GetConfigKeyParam extracts and decodes the named URL parameter and checks
// that it can name a sync config: non-empty, without whitespace, and a plain
// file stem rather than a path.
func GetConfigKeyParam(r *http.Request, paramName string) (string, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, paramName))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	if strings.TrimSpace(decoded) == "" {
		return "", fmt.Errorf("%s cannot be empty", paramName)
	}
	if strings.ContainsAny(decoded, " \t\n\r") {
		return "", fmt.Errorf("%s cannot contain whitespace", paramName)
	}
	if strings.ContainsAny(decoded, `/\`) || decoded == "." || decoded == ".." {
		return "", fmt.Errorf("%s must be a plain config key", paramName)
	}

	return decoded, nil
}
