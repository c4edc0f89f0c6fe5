package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("TMDb API key is not configured. Set tmdb.api_key or POPCORN_TMDB_API_KEY")

// APIError is a non-2xx response from TMDb. Status is the full status line,
// e.g. "401 Unauthorized".
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "tmdb API error: " + e.Status
	}
	return fmt.Sprintf("tmdb API error: %s: %s", e.Status, e.Message)
}

// StatusText returns the reason phrase without the code, e.g. "Unauthorized".
func (e *APIError) StatusText() string {
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return e.Status
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	if apiErr.Status == "" {
		apiErr.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	var payload errorResponse
	if jsonAPI.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.StatusMessage
	}
	return apiErr
}
