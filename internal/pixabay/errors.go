package pixabay

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingAPIKey is returned before any request is made when no key is configured.
var ErrMissingAPIKey = errors.New("pixabay: missing API key (set api.key or PIXABAY_API_KEY)")

// APIError is a non-success HTTP response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error: %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error: %d: %s", e.StatusCode, e.Message)
}

// RateLimitError is returned for 429 responses. Reset is how long until the
// quota window reopens.
type RateLimitError struct {
	Reset time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by Pixabay, retry in %s", e.Reset.Round(time.Second))
}

// IsRateLimited reports whether err is, or wraps, a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
