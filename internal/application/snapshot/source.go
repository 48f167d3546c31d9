package snapshot

import (
	"context"
	"fmt"
)

// Source produces one snapshot: it fetches upstream truth and serializes
// it into the payload that will be committed wholesale under the
// snapshot key. Validate declares the payload's required shape and is
// run both before commit and by the repair tool on read-back.
type Source interface {
	ID() string
	Fetch(ctx context.Context) ([]byte, error)
	Validate(raw []byte) error
}

// Committer is an optional Source extension for side writes that must
// only happen after the snapshot itself committed cleanly.
type Committer interface {
	AfterCommit(ctx context.Context) error
}

// TransientError marks a fetch failure worth retrying: network faults,
// timeouts, upstream 5xx. Anything else fails the run immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}
