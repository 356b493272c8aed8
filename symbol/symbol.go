// Package symbol implements the codec for dynamic event path segments.
//
// A dynamic value is serialized with deterministic CBOR and rendered as a
// lowercase hex string so that it is safe to embed anywhere a path
// segment can appear. The wire format carries no type tag: decoding a
// segment against the wrong type may spuriously succeed and yield
// garbage. Matching the type used at encode time is caller discipline.
package symbol

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Symbol is a single event path segment: either a static literal or a
// codec-encoded dynamic value. A Symbol is never empty.
type Symbol = string

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em

	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Encode serializes v into a path-safe segment.
func Encode(v any) (Symbol, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode symbol value: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Decode recovers a value of type S from a dynamic segment. S must be
// the type that was used at encode time. Segments are
// renderer-controlled input: both failure modes are reported as typed
// errors and never panic.
func Decode[S any](s Symbol) (S, error) {
	var out S

	b, err := hex.DecodeString(s)
	if err != nil {
		return out, &HexError{Input: s, Err: err}
	}

	if err := decMode.Unmarshal(b, &out); err != nil {
		return out, &DataError{Bytes: b, Err: err}
	}

	return out, nil
}

// HexError reports a segment whose text could not be recovered to bytes.
type HexError struct {
	Input string
	Err   error
}

func (e *HexError) Error() string {
	return fmt.Sprintf("failed to decode hex segment %q: %v", e.Input, e.Err)
}

func (e *HexError) Unwrap() error { return e.Err }

// DataError reports recovered bytes that are not a valid encoding of the
// requested type.
type DataError struct {
	Bytes []byte
	Err   error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("failed to decode symbol bytes %x: %v", e.Bytes, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
