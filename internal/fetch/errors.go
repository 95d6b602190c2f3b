package fetch

import "fmt"

// Reason classifies a fetch failure.
type Reason string

const (
	TooLarge          Reason = "too_large"
	UnsupportedFormat Reason = "unsupported_format"
	NotFound          Reason = "not_found"
	NetworkFailure    Reason = "network_failure"
)

// Error is a typed fetch failure carrying the reference that caused it.
type Error struct {
	Reason Reason
	Ref    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Ref, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
