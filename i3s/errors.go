package i3s

import (
	"errors"
	"fmt"
)

var (
	ErrUnrecognizedLayout     = errors.New("unrecognized layout")
	ErrVersionMismatch        = errors.New("version mismatch")
	ErrLayoutMismatch         = errors.New("layout mismatch")
	ErrNamespaceOverflow      = errors.New("namespace overflow")
	ErrIdentifierCollision    = errors.New("identifier collision")
	ErrAssetReferenceDangling = errors.New("asset reference dangling")
	ErrDanglingReference      = errors.New("dangling node reference")
	ErrMissingIndex           = errors.New("missing index document")
)

// Error wraps a merge failure with the offending input
type Error struct {
	Kind  error
	Input string
	Msg   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	text := e.Kind.Error()
	if e.Input != "" {
		text += " [" + e.Input + "]"
	}
	if e.Msg != "" {
		text += ": " + e.Msg
	}
	return text
}

func (e *Error) Unwrap() error { return e.Kind }

// Errorf creates an Error for the given kind and input
func Errorf(kind error, input string, format string, args ...any) error {
	return &Error{Kind: kind, Input: input, Msg: fmt.Sprintf(format, args...)}
}

// IsInternal reports whether err signals a broken engine invariant rather than bad input
func IsInternal(err error) bool {
	var mergeErr *Error
	if !errors.As(err, &mergeErr) {
		return false
	}
	return mergeErr.Kind == ErrIdentifierCollision && mergeErr.Input == ""
}
