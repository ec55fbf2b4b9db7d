package ragic

import "fmt"

// RequestError is a non-retryable (or retries-exhausted) failure talking to
// the Ragic API. It carries the HTTP status and response body for the caller;
// the request credential is never included.
type RequestError struct {
	Status int
	Body   string
	URL    string
}

func (e *RequestError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("ragic request failed: %s returned %d: %s", e.URL, e.Status, body)
}

// Retryable reports whether the failure is transient: server-side errors and
// rate limiting retry, client errors do not.
func (e *RequestError) Retryable() bool {
	return e.Status >= 500 || e.Status == 429
}
