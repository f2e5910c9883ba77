package medusa

import "fmt"

// APIError is a non-2xx answer from the commerce backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("medusa api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("medusa api error: status %d: %s", e.StatusCode, e.Message)
}
