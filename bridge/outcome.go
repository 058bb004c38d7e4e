package bridge

// Outcome is the two-state result handed to a host: either a payload or a
// human-readable failure message. It carries no error codes.
type Outcome[T any] struct {
	ok      bool
	value   T
	message string
}

// Ok wraps a successful payload.
func Ok[T any](v T) Outcome[T] { return Outcome[T]{ok: true, value: v} }

// Fail wraps a failure message.
func Fail[T any](message string) Outcome[T] { return Outcome[T]{message: message} }

func outcomeOf[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Fail[T](err.Error())
	}
	return Ok(v)
}

// IsOk reports whether the outcome carries a payload.
func (o Outcome[T]) IsOk() bool { return o.ok }

// Value returns the payload (zero on failure).
func (o Outcome[T]) Value() T { return o.value }

// Message returns the failure message ("" on success).
func (o Outcome[T]) Message() string { return o.message }

// Unpack returns the payload and whether the outcome succeeded, in the
// style of a map lookup.
func (o Outcome[T]) Unpack() (T, bool) { return o.value, o.ok }

// Tag returns "ok" or "error", the atom a host tuple leads with.
func (o Outcome[T]) Tag() string {
	if o.ok {
		return "ok"
	}
	return "error"
}
