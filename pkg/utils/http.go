// Package utils provides common utility functions.
package utils

import (
	"net/http"
	"net/url"
)

// UserAgent is sent with every outgoing request.
const UserAgent = "tweetnorm/1.0"

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct{}

// NewHTTPHelper creates a new HTTP helper.
func NewHTTPHelper() *HTTPHelper {
	return &HTTPHelper{}
}

// IsValidURL reports whether raw is an absolute http or https URL with a host.
func (h *HTTPHelper) IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildHeaders creates HTTP headers with defaults.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	// Add default headers
	headers.Set("User-Agent", UserAgent)
	headers.Set("Accept", "application/json")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}

// BearerHeaders returns the default headers plus an Authorization bearer token.
func (h *HTTPHelper) BearerHeaders(token string) http.Header {
	return h.BuildHeaders(map[string]string{"Authorization": "Bearer " + token})
}
