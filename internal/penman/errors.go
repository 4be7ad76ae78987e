package penman

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrDecode indicates a block that is not well-formed PENMAN notation.
	ErrDecode = errors.New("decode error")

	// ErrLayout indicates a graph that cannot be serialized from its top node,
	// typically because some triples are unreachable from it.
	ErrLayout = errors.New("layout error")
)

// DecodeError describes where and why a block failed to decode.
// Wraps ErrDecode for errors.Is() compatibility.
type DecodeError struct {
	Pos int    // Byte offset into the block
	Msg string // Deterministic error message
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrDecode.Error()
	}
	return fmt.Sprintf("%s: %s (offset %d)", ErrDecode.Error(), e.Msg, e.Pos)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// LayoutError describes a graph the encoder refused to serialize.
// Wraps ErrLayout for errors.Is() compatibility.
type LayoutError struct {
	Top string
	Msg string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrLayout.Error()
	}
	return fmt.Sprintf("%s: top %q: %s", ErrLayout.Error(), e.Top, e.Msg)
}

func (e *LayoutError) Unwrap() error { return ErrLayout }
