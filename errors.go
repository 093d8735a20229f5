package pup

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMagic       = errors.New("pup: unknown magic")
	ErrMalformedHeader    = errors.New("pup: malformed header")
	ErrTruncatedInput     = errors.New("pup: truncated input")
	ErrSegmentOutOfBounds = errors.New("pup: segment out of bounds")
	ErrPackageTooLarge    = errors.New("pup: package too large")
	ErrLimitExceeded      = errors.New("pup: limit exceeded")
	ErrValidation         = errors.New("pup: validation failed")
)

// OffsetError tags a parse failure with the byte offset at which parsing
// stopped. [Read] wraps every error it returns in an OffsetError; unwrap
// with errors.Is / errors.As as usual.
type OffsetError struct {
	Offset uint64
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("%v (at byte %d)", e.Err, e.Offset)
}

func (e *OffsetError) Unwrap() error {
	return e.Err
}

func errAt(offset uint64, err error) error {
	return &OffsetError{Offset: offset, Err: err}
}
