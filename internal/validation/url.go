// Package validation checks operator-supplied settings.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLError names the setting that failed and why.
type URLError struct {
	Field   string
	Message string
	URL     string
}

func (e URLError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateURL accepts an empty value. Otherwise the URL needs an http or
// https scheme and a host, and https when requireHTTPS is set.
func ValidateURL(raw, field string, requireHTTPS bool) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return URLError{Field: field, Message: "invalid URL format", URL: raw}
	}
	scheme := strings.ToLower(u.Scheme)
	switch {
	case scheme == "":
		return URLError{Field: field, Message: "URL must include a scheme (http:// or https://)", URL: raw}
	case u.Host == "":
		return URLError{Field: field, Message: "URL must include a host", URL: raw}
	case scheme != "http" && scheme != "https":
		return URLError{Field: field, Message: "URL scheme must be http or https", URL: raw}
	case requireHTTPS && scheme != "https":
		return URLError{Field: field, Message: "URL must use HTTPS in production", URL: raw}
	}
	return nil
}

// ValidateBaseURL also rejects a query or fragment, and any path beyond "/".
// Endpoint paths are appended to base URLs.
func ValidateBaseURL(raw, field string, requireHTTPS bool) error {
	if err := ValidateURL(raw, field, requireHTTPS); err != nil || raw == "" {
		return err
	}

	u, _ := url.Parse(raw)
	switch {
	case u.Path != "" && u.Path != "/":
		return URLError{Field: field, Message: "base URL must not contain a path", URL: raw}
	case u.RawQuery != "":
		return URLError{Field: field, Message: "base URL must not contain query parameters", URL: raw}
	case u.Fragment != "":
		return URLError{Field: field, Message: "base URL must not contain a fragment", URL: raw}
	}
	return nil
}
