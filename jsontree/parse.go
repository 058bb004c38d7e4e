package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// SyntaxError reports malformed JSON text.
type SyntaxError struct {
	// Offset is the byte offset after which the error was detected.
	Offset int64
	Reason string
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s at offset %d", e.Reason, e.Offset)
}

// Parse parses exactly one JSON value from text.
//
// Object member order is preserved. When a key repeats, the last value wins
// and keeps the position of the first occurrence. Text that is not valid
// UTF-8 is rejected.
func Parse(text []byte) (Value, error) {
	if off, ok := invalidUTF8(text); ok {
		return Value{}, &SyntaxError{Offset: int64(off), Reason: "invalid UTF-8 in JSON text"}
	}
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return Value{}, syntaxError(dec, err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return Value{}, syntaxError(dec, err)
		}
		return Value{}, &SyntaxError{Offset: dec.InputOffset(), Reason: fmt.Sprintf("trailing data after top-level value: %v", tok)}
	}
	return v, nil
}

// invalidUTF8 reports the offset of the first byte that does not start a
// valid UTF-8 sequence.
func invalidUTF8(text []byte) (int, bool) {
	if utf8.Valid(text) {
		return 0, false
	}
	for off := 0; off < len(text); {
		r, n := utf8.DecodeRune(text[off:])
		if r == utf8.RuneError && n == 1 {
			return off, true
		}
		off += n
	}
	return 0, false
}

// ParseString is Parse for string input.
func ParseString(text string) (Value, error) {
	return Parse([]byte(text))
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(string(t)), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			return parseArray(dec)
		case '{':
			return parseObject(dec)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

func parseArray(dec *json.Decoder) (Value, error) {
	items := []Value{}
	for dec.More() {
		v, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return Value{}, err
	}
	return Array(items...), nil
}

func parseObject(dec *json.Decoder) (Value, error) {
	var members []Member
	idx := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %v", tok)
		}
		v, err := parseValue(dec)
		if err != nil {
			return Value{}, err
		}
		if i, dup := idx[key]; dup {
			members[i].Value = v
			continue
		}
		idx[key] = len(members)
		members = append(members, Member{Key: key, Value: v})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Value{}, err
	}
	return Value{kind: KindObject, members: members}, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", rune(want), tok)
	}
	return nil
}

func syntaxError(dec *json.Decoder, err error) error {
	var se *json.SyntaxError
	switch {
	case errors.As(err, &se):
		return &SyntaxError{Offset: se.Offset, Reason: se.Error()}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &SyntaxError{Offset: dec.InputOffset(), Reason: "unexpected end of JSON input"}
	default:
		return &SyntaxError{Offset: dec.InputOffset(), Reason: err.Error()}
	}
}
