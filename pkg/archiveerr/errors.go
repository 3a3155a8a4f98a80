// Package archiveerr defines the error kinds shared by the nar and pak
// readers, so a caller can switch on failure class without string matching.
package archiveerr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of failure at the core boundary (spec §7).
type Kind int

const (
	// InvalidKeySize means a cipher key length does not match the
	// configured level.
	InvalidKeySize Kind = iota
	// InvalidMagic means an archive signature did not match.
	InvalidMagic
	// InvalidVersion means an archive or container version field did not
	// match the supported value.
	InvalidVersion
	// InvalidChecksum means the PAK header checksum relation failed, or a
	// NAR entry's CRC-32 did not match.
	InvalidChecksum
	// Truncated means a read requested more bytes than the view or stream
	// could provide.
	Truncated
	// OutOfRange means a path length, entry count, or match distance
	// exceeded its documented bound.
	OutOfRange
	// MalformedTokenStream means the NAR LZ token stream referenced a
	// distance beyond the dictionary's valid count, or a literal run was
	// truncated.
	MalformedTokenStream
	// UnsupportedType means a PAK entry type has no decode path (the
	// Compressed type, or any unrecognized stored/entry type).
	UnsupportedType
	// Unsupported means the requested cipher configuration (mode, padding)
	// is not implemented; ECB with no padding is the only supported mode.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case InvalidKeySize:
		return "invalid key size"
	case InvalidMagic:
		return "invalid magic"
	case InvalidVersion:
		return "invalid version"
	case InvalidChecksum:
		return "invalid checksum"
	case Truncated:
		return "truncated"
	case OutOfRange:
		return "out of range"
	case MalformedTokenStream:
		return "malformed token stream"
	case UnsupportedType:
		return "unsupported type"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown error kind"
	}
}

// Error wraps an underlying cause with a Kind and the operation that
// produced it, so callers can do errors.As and switch on Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error with no wrapped cause.
func New(op string, kind Kind) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap constructs an *Error that wraps err.
func Wrap(op string, kind Kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
