package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	StatusCode       int
	Message          string
	DocumentationURL string

	// Errors is present only on 422 responses.
	Errors []ValidationError
}

// ValidationError describes a field-level validation failure.
type ValidationError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "github: HTTP %d: %s", err.StatusCode, err.Message)
	for _, v := range err.Errors {
		detail := v.Message
		if detail == "" {
			detail = v.Code
		}
		fmt.Fprintf(&builder, "; %s.%s: %s", v.Resource, v.Field, detail)
	}
	return builder.String()
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a 409 response. GitHub answers a merge
// with a stale sha this way.
func IsConflict(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusConflict
}

// IsRateLimited reports whether err is a primary (403) or secondary (429)
// rate limit response.
func IsRateLimited(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == http.StatusTooManyRequests ||
		(apiError.StatusCode == http.StatusForbidden && isRateLimitMessage(apiError.Message))
}

func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse detection")
}
