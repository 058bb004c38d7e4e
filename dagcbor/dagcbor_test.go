package dagcbor

import (
	"encoding/hex"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/ipld"
	"xdao.co/dagcbor/jsontree"
)

const (
	testCIDv1 = "bafyreidykglsfhoixmivffc5uwhcgshx4j465xwqntbmu43nb2dzqwfvae"
	// tag 42 wrapping 0x00 + binary CID of testCIDv1.
	testLinkHex = "d82a58250001711220785197229dc8bb1152945da58e2348f7e279eeded06cc2ca736d0e879858b501"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	return b
}

func mustLink(t *testing.T) ipld.Link {
	t.Helper()
	id, err := cid.Decode(testCIDv1)
	if err != nil {
		t.Fatalf("cid: %v", err)
	}
	return ipld.Link{Cid: id}
}

func TestEncode_Vectors(t *testing.T) {
	cases := []struct {
		name string
		in   ipld.Value
		want string
	}{
		{"null", ipld.Null{}, "f6"},
		{"true", ipld.Bool(true), "f5"},
		{"small int", ipld.Int(1), "01"},
		{"negative int", ipld.Int(-10), "29"},
		{"max int64", ipld.Int(math.MaxInt64), "1b7fffffffffffffff"},
		{"float is always 64-bit", ipld.Float(1.5), "fb3ff8000000000000"},
		{"lossy float", ipld.LossyFloat{Value: 9223372036854775808.0, Original: "9223372036854775808"}, "fb43e0000000000000"},
		{"string", ipld.String("a"), "6161"},
		{"empty map", ipld.Map{}, "a0"},
		{"empty list", ipld.List{}, "80"},
		{"map", ipld.Map{{Key: "a", Value: ipld.Int(1)}, {Key: "b", Value: ipld.List{ipld.Bool(true), ipld.Null{}}}}, "a261610161628 2f5f6"},
		{"canonical key order", ipld.Map{{Key: "bb", Value: ipld.Int(1)}, {Key: "a", Value: ipld.Int(2)}}, "a2616102626262 01"},
		{"link", mustLink(t), testLinkHex},
		{"tagged link", ipld.Map{{Key: "cid", Value: ipld.Map{{Key: "42", Value: mustLink(t)}}}}, "a163636964a1623432" + testLinkHex},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			want := strings.ReplaceAll(tc.want, " ", "")
			if hex.EncodeToString(got) != want {
				t.Fatalf("Encode: got %x want %s", got, want)
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   ipld.Value
	}{
		{"nil", nil},
		{"nan", ipld.Float(math.NaN())},
		{"inf", ipld.List{ipld.Float(math.Inf(1))}},
		{"lossy inf", ipld.LossyFloat{Value: math.Inf(1), Original: "1" + strings.Repeat("0", 400)}},
		{"undefined link", ipld.Link{}},
		{"duplicate key", ipld.Map{{Key: "a", Value: ipld.Int(1)}, {Key: "a", Value: ipld.Int(2)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.in)
			if err == nil {
				t.Fatalf("expected error")
			}
			var de *Error
			if !errors.As(err, &de) || de.Op != "encode" {
				t.Fatalf("expected *Error{Op: encode}, got %T %v", err, err)
			}
		})
	}
}

func TestDecode_LinkBecomesText(t *testing.T) {
	got, err := Decode(mustHex(t, "a163636964a1623432"+testLinkHex))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := jsontree.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"cid":{"42":"`+testCIDv1+`"}}` {
		t.Fatalf("got %s", out)
	}
}

func TestDecode_Scalars(t *testing.T) {
	cases := []struct {
		hex  string
		want string
	}{
		{"f6", "null"},
		{"f4", "false"},
		{"1b7fffffffffffffff", "9223372036854775807"},
		{"1bffffffffffffffff", "18446744073709551615"},
		{"3b7fffffffffffffff", "-9223372036854775808"},
		{"a1616181" + testLinkHex, `{"a":["` + testCIDv1 + `"]}`},
		{"fb3ff8000000000000", "1.5"},
		{"fb3ff0000000000000", "1.0"},
		{"fb43e0000000000000", "9.223372036854776e+18"},
		{"6161", `"a"`},
		{"43010203", "[1,2,3]"},
		{"a0", "{}"},
		{"80", "[]"},
	}
	for _, tc := range cases {
		v, err := Decode(mustHex(t, tc.hex))
		if err != nil {
			t.Fatalf("Decode(%s): %v", tc.hex, err)
		}
		out, err := jsontree.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", tc.hex, err)
		}
		if string(out) != tc.want {
			t.Fatalf("Decode(%s): got %s want %s", tc.hex, out, tc.want)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"truncated map":    "a26161",
		"truncated link":   testLinkHex[:20],
		"trailing bytes":   "f6f6",
		"indefinite array": "9f01ff",
		"foreign tag":      "d8206161",
		"epoch time tag":   "c11a514b67b0",
		"bignum tag":       "c249010000000000000000",
		"nested tag":       "81d8206161",
		"below min int64":  "3b8000000000000000",
		"negative 2^64":    "3bffffffffffffffff",
		"undefined":        "f7",
		"simple value":     "f820",
		"reserved info":    "1c",
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(mustHex(t, h))
			if err == nil {
				t.Fatalf("expected error")
			}
			var de *Error
			if !errors.As(err, &de) || de.Op != "decode" {
				t.Fatalf("expected *Error{Op: decode}, got %T %v", err, err)
			}
			if de.Error() == "" {
				t.Fatalf("empty message")
			}
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := ipld.Map{
		{Key: "name", Value: ipld.String("x")},
		{Key: "n", Value: ipld.Int(-3)},
		{Key: "f", Value: ipld.Float(0.25)},
		{Key: "l", Value: ipld.List{mustLink(t), ipld.Null{}}},
	}
	b, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want, err := jsontree.ParseString(`{"name":"x","n":-3,"f":0.25,"l":["` + testCIDv1 + `",null]}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !jsontree.Equal(got, want) {
		out, _ := jsontree.Marshal(got)
		t.Fatalf("round trip mismatch: %s", out)
	}
}

func TestWellformed(t *testing.T) {
	if err := Wellformed(mustHex(t, "a0")); err != nil {
		t.Fatalf("Wellformed(a0): %v", err)
	}
	if err := Wellformed(mustHex(t, "a1")); err == nil {
		t.Fatalf("expected truncated map to be rejected")
	}
}

func TestDiagnose(t *testing.T) {
	got, err := Diagnose(mustHex(t, "a163636964a1623432"+testLinkHex))
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.HasPrefix(got, `{"cid": {"42": 42(h'00017112`) {
		t.Fatalf("unexpected diagnostic notation: %s", got)
	}
	if _, err := Diagnose(nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
