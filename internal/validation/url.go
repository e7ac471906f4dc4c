package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLValidationError represents a URL validation failure
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateURL checks that urlString is an absolute http or https URL.
func ValidateURL(urlString, fieldName string) error {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return URLValidationError{Field: fieldName, Message: "invalid URL format", URL: urlString}
	}
	if parsedURL.Scheme == "" {
		return URLValidationError{Field: fieldName, Message: "URL must include a scheme (http:// or https://)", URL: urlString}
	}
	if parsedURL.Host == "" {
		return URLValidationError{Field: fieldName, Message: "URL must include a host", URL: urlString}
	}
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return URLValidationError{Field: fieldName, Message: "URL scheme must be http or https", URL: urlString}
	}
	return nil
}

// ValidateOrigin validates a CORS origin or server base URL.
// Origins carry no path, query or fragment.
func ValidateOrigin(urlString, fieldName string) error {
	if err := ValidateURL(urlString, fieldName); err != nil {
		return err
	}

	parsedURL, _ := url.Parse(urlString)
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return URLValidationError{Field: fieldName, Message: "origin must not contain a path", URL: urlString}
	}
	if parsedURL.RawQuery != "" {
		return URLValidationError{Field: fieldName, Message: "origin must not contain query parameters", URL: urlString}
	}
	if parsedURL.Fragment != "" {
		return URLValidationError{Field: fieldName, Message: "origin must not contain a fragment", URL: urlString}
	}
	return nil
}
