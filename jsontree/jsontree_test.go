package jsontree

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParse_PreservesMemberOrder(t *testing.T) {
	v, err := ParseString(`{"z":1,"a":[true,null,"s"],"m":{"y":2.5,"b":-3}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	if got := strings.Join(keys, ","); got != "z,a,m" {
		t.Fatalf("member order: got %s", got)
	}
	out, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"z":1,"a":[true,null,"s"],"m":{"y":2.5,"b":-3}}` {
		t.Fatalf("Marshal: got %s", out)
	}
}

func TestParse_DuplicateKeyLastWins(t *testing.T) {
	v, err := ParseString(`{"a":1,"b":2,"a":3}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", v.Len())
	}
	a, _ := v.Lookup("a")
	if a.Literal() != "3" {
		t.Fatalf("expected last value to win, got %q", a.Literal())
	}
	if v.Members()[0].Key != "a" {
		t.Fatalf("expected duplicate to keep first position")
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"",
		"{not json",
		"[1,2",
		`{"a":}`,
		"{} {}",
		"1 x",
		`{"a" 1}`,
		"\"\xff\"",
		"{\"k\xc3\":1}",
	}
	for _, in := range cases {
		_, err := ParseString(in)
		if err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("Parse(%q): expected *SyntaxError, got %T", in, err)
		}
		if se.Reason == "" {
			t.Fatalf("Parse(%q): empty reason", in)
		}
	}
}

func TestParse_Scalars(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{"null", KindNull},
		{"true", KindBool},
		{"-12", KindNumber},
		{"1e3", KindNumber},
		{`"x"`, KindString},
		{"[]", KindArray},
		{"{}", KindObject},
	}
	for _, tc := range cases {
		v, err := ParseString(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if v.Kind() != tc.kind {
			t.Fatalf("Parse(%q): kind %v want %v", tc.in, v.Kind(), tc.kind)
		}
		out, err := Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%q): %v", tc.in, err)
		}
		if string(out) != tc.in {
			t.Fatalf("Marshal(%q): got %s", tc.in, out)
		}
	}
}

func TestNumberClassification(t *testing.T) {
	if i, ok := Number("9223372036854775807").Int64(); !ok || i != math.MaxInt64 {
		t.Fatalf("max int64: got %d ok=%v", i, ok)
	}
	if _, ok := Number("9223372036854775808").Int64(); ok {
		t.Fatalf("max int64 + 1 must not fit")
	}
	if !Number("9223372036854775808").IsIntegerLiteral() {
		t.Fatalf("max int64 + 1 is still an integer literal")
	}
	if Number("1.0").IsIntegerLiteral() || Number("1e2").IsIntegerLiteral() {
		t.Fatalf("fraction/exponent literals are not integer literals")
	}
	f, err := Number("1e400").Float64()
	if err != nil || !math.IsInf(f, 1) {
		t.Fatalf("1e400: got %v err=%v", f, err)
	}
}

func TestFloat_KeepsFractionMarker(t *testing.T) {
	cases := map[float64]string{
		1:     "1.0",
		-2:    "-2.0",
		0.5:   "0.5",
		1e21:  "1e+21",
		1e-7:  "1e-07",
		12.25: "12.25",
	}
	for f, want := range cases {
		if got := Float(f).Literal(); got != want {
			t.Fatalf("Float(%v) = %q want %q", f, got, want)
		}
	}
}

func TestMarshal_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Marshal(Array(Float(f))); err == nil {
			t.Fatalf("Marshal(%v): expected error", f)
		}
	}
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	out, err := Marshal(String("<a&b>"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `"<a&b>"` {
		t.Fatalf("got %s", out)
	}
}

func TestEqual_IgnoresMemberOrder(t *testing.T) {
	a, _ := ParseString(`{"a":1,"b":[1.5,"x"]}`)
	b, _ := ParseString(`{"b":[1.50,"x"],"a":1}`)
	if !Equal(a, b) {
		t.Fatalf("expected equal")
	}
	c, _ := ParseString(`{"a":1.0,"b":[1.5,"x"]}`)
	if Equal(a, c) {
		t.Fatalf("integer and float literals must differ")
	}
}

func TestMarshalIndent(t *testing.T) {
	out, err := MarshalIndent(Object(Member{Key: "a", Value: Int(1)}), "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	if string(out) != "{\n  \"a\": 1\n}" {
		t.Fatalf("got %q", out)
	}
}

func TestParse_InvalidUTF8Offset(t *testing.T) {
	_, err := ParseString("[\"ok\",\"\xff\"]")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if se.Offset != 7 {
		t.Fatalf("offset: got %d want 7", se.Offset)
	}
	if _, err := ParseString(`"héllo ✓"`); err != nil {
		t.Fatalf("valid UTF-8 rejected: %v", err)
	}
}
