package remote

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrBadSnapshot indicates the remote response was not the expected 2-D
// tabular shape. Nothing is imported when it is returned.
var ErrBadSnapshot = errors.New("remote snapshot is not tabular")

// ErrBadRow indicates a single snapshot row failed validation and was skipped.
var ErrBadRow = errors.New("invalid snapshot row")

// Sink is the remote sheet the ledger reconciles against. Append is best
// effort and at-most-once on the remote side; Snapshot returns the full
// dataset with row 0 as a header. The sink never deletes.
type Sink interface {
	Append(ctx context.Context, rows [][]any) error
	Snapshot(ctx context.Context) ([][]any, error)
}

// IsScriptEndpoint reports whether raw looks like an Apps Script web-app URL.
// Anything else is refused before a network call is made.
func IsScriptEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "https" {
		return false
	}
	switch u.Hostname() {
	case "script.google.com", "script.googleusercontent.com":
	default:
		return false
	}
	return strings.Contains(u.Path, "/macros/")
}
