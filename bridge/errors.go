package bridge

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
type Kind string

const (
	// KindParse: input JSON text (encode) or DAG-CBOR bytes (decode) is malformed.
	KindParse Kind = "Parse"
	// KindCodec: a valid tree could not be encoded, or decoded data could not
	// be rendered as JSON text.
	KindCodec Kind = "Codec"
	// KindLossy: an integer outside int64 was met while RejectLossyNumbers is set.
	KindLossy Kind = "Lossy"
)

// Error is the package's structured error type.
//
// Message is intended for humans and is what crosses the host boundary in
// an Outcome; do not match on it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func wrapError(kind Kind, prefix string, cause error) error {
	return &Error{Kind: kind, Message: prefix + ": " + cause.Error(), Cause: cause}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
