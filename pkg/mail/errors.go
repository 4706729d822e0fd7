package mail

import (
	"errors"
	"fmt"
	"net"

	"github.com/deskhand/deskhand/pkg/retry"
)

// APIError is a non-2xx response from the mail provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mail provider returned %d: %s", e.StatusCode, e.Body)
}

// ClassifySendError sorts a send failure into the retry taxonomy.
// Network faults, provider 5xx, and rate limiting (429) may clear on
// retry; auth failures (401/403) and payload rejection (400) will not.
// Anything unrecognized is treated as transient so it is retried
// rather than dropped.
func ClassifySendError(err error) error {
	if err == nil {
		return nil
	}
	if retry.IsTransient(err) || retry.IsPermanent(err) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return retry.Transient(err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode >= 500, apiErr.StatusCode == 429:
			return retry.Transient(err)
		case apiErr.StatusCode == 400, apiErr.StatusCode == 401, apiErr.StatusCode == 403:
			return retry.Permanent(err)
		}
	}
	return retry.Transient(err)
}
