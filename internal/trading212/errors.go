package trading212

import (
	"errors"
	"fmt"
)

// Sentinel errors for the export API. Callers branch on these; in particular
// ErrUnauthorized and ErrForbidden propagate up to flag the connection as
// requiring a credential update.
var (
	ErrBadRequest     = errors.New("trading212: bad request")
	ErrUnauthorized   = errors.New("trading212: unauthorized")
	ErrForbidden      = errors.New("trading212: access forbidden")
	ErrNotFound       = errors.New("trading212: not found")
	ErrRateLimited    = errors.New("trading212: rate limited")
	ErrExportFailed   = errors.New("trading212: export job failed")
	ErrTimeout        = errors.New("trading212: export job timed out")
	ErrDownloadFailed = errors.New("trading212: download failed")
)

// IsAuthError reports whether err means the connection's credentials were
// rejected by the remote API.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// statusError maps a non-2xx HTTP status to a sentinel error.
func statusError(code int) error {
	switch code {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	default:
		return fmt.Errorf("trading212: unexpected status %d", code)
	}
}
