package wire

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decoding failures.
type ErrorKind uint8

const (
	// InvalidPoint means an account field is not a valid curve point.
	InvalidPoint ErrorKind = iota + 1
	// Truncated means the buffer ended before the message did.
	Truncated
	// UnknownType means the type tag is not a known message type.
	UnknownType
	// TrailingBytes means bytes remain after a complete message.
	TrailingBytes
	// TooManyEntries means the entry count exceeds MaxBlockEntries.
	TooManyEntries
)

// String ...
func (k ErrorKind) String() string {
	switch k {
	case InvalidPoint:
		return "invalid point"
	case Truncated:
		return "truncated"
	case UnknownType:
		return "unknown message type"
	case TrailingBytes:
		return "trailing bytes"
	case TooManyEntries:
		return "too many entries"
	default:
		return "unknown"
	}
}

// DecodeError is returned by all decoding functions. Offset is the position in
// the buffer where decoding stopped, or -1 for the sentinel values below.
type DecodeError struct {
	Kind   ErrorKind
	Offset int
	Err    error
}

// Sentinels for errors.Is. Any DecodeError matches the sentinel of its Kind.
var (
	ErrInvalidPoint   = &DecodeError{Kind: InvalidPoint, Offset: -1}
	ErrTruncated      = &DecodeError{Kind: Truncated, Offset: -1}
	ErrUnknownType    = &DecodeError{Kind: UnknownType, Offset: -1}
	ErrTrailingBytes  = &DecodeError{Kind: TrailingBytes, Offset: -1}
	ErrTooManyEntries = &DecodeError{Kind: TooManyEntries, Offset: -1}
)

// ErrBlockTooLarge is returned when encoding a block with more than
// MaxBlockEntries entries.
var ErrBlockTooLarge = errors.New("block exceeds MaxBlockEntries")

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s at offset %d: %v", e.Kind, e.Offset, e.Err)
	}
	return fmt.Sprintf("decode: %s at offset %d", e.Kind, e.Offset)
}

// Unwrap ...
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match on Kind.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// IsDecodeError reports whether err comes from the decoder.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
