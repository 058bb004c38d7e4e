package dagcbor

// Error reports a failed encode or decode. Op is "encode" or "decode".
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func encodeError(err error) error { return &Error{Op: "encode", Err: err} }
func decodeError(err error) error { return &Error{Op: "decode", Err: err} }
