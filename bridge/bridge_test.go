package bridge

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"testing"

	"xdao.co/dagcbor/ipld"
	"xdao.co/dagcbor/jsontree"
	"xdao.co/dagcbor/translate"
)

const (
	testCIDv1 = "bafyreidykglsfhoixmivffc5uwhcgshx4j465xwqntbmu43nb2dzqwfvae"
	testCIDv0 = "QmdfTbBqBPQ7VNxZEYEj14VmRuZBkqFbiwReogJgS1zR1n"
)

func roundTrip(t *testing.T, c *Converter, in string) string {
	t.Helper()
	enc := c.EncodeRequest(in)
	if !enc.IsOk() {
		t.Fatalf("EncodeRequest(%s): %s", in, enc.Message())
	}
	dec := c.DecodeRequest(enc.Value())
	if !dec.IsOk() {
		t.Fatalf("DecodeRequest(%x): %s", enc.Value(), dec.Message())
	}
	return dec.Value()
}

func assertJSONEqual(t *testing.T, got, want string) {
	t.Helper()
	g, err := jsontree.ParseString(got)
	if err != nil {
		t.Fatalf("parse got %s: %v", got, err)
	}
	w, err := jsontree.ParseString(want)
	if err != nil {
		t.Fatalf("parse want %s: %v", want, err)
	}
	if !jsontree.Equal(g, w) {
		t.Fatalf("JSON mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestRoundTrip_PlainJSON(t *testing.T) {
	cases := []string{
		`null`,
		`true`,
		`0`,
		`-17`,
		`1.5`,
		`"hello"`,
		`"ünïcødé ✓"`,
		`{}`,
		`[]`,
		`{"b":1,"a":[1,2,{"c":null}],"long-key":"v"}`,
		`[[],[{}],[[[]]]]`,
		`{"cid_like":"not-an-id","nested":{"x":false,"y":-0.125}}`,
		`{"html":"<a href=\"x\">&</a>"}`,
	}
	for _, in := range cases {
		assertJSONEqual(t, roundTrip(t, Default, in), in)
	}
}

func TestRoundTrip_EmptyContainersExact(t *testing.T) {
	for _, in := range []string{`{}`, `[]`} {
		if got := roundTrip(t, Default, in); got != in {
			t.Fatalf("%s: got %s", in, got)
		}
	}
}

func TestRoundTrip_IdentifierPromotion(t *testing.T) {
	for _, id := range []string{testCIDv1, testCIDv0} {
		in := `{"ref":"` + id + `","list":["` + id + `"]}`
		res, err := Default.Encode([]byte(in))
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if res.Report.Links != 2 {
			t.Fatalf("expected 2 promoted links, got %+v", res.Report)
		}
		// tag 42 header must be present in the wire bytes.
		if !strings.Contains(hex.EncodeToString(res.Bytes), "d82a58") {
			t.Fatalf("expected tag 42 in %x", res.Bytes)
		}
		assertJSONEqual(t, roundTrip(t, Default, in), in)
	}
}

func TestRoundTrip_ExplicitCIDField(t *testing.T) {
	got := roundTrip(t, Default, `{"cid":"`+testCIDv1+`"}`)
	if got != `{"cid":{"42":"`+testCIDv1+`"}}` {
		t.Fatalf("got %s", got)
	}
}

func TestRoundTrip_NonIdentifierCIDField(t *testing.T) {
	got := roundTrip(t, Default, `{"cid":"not-an-id"}`)
	if got != `{"cid":"not-an-id"}` {
		t.Fatalf("got %s", got)
	}
}

func TestRoundTrip_IntegerBoundary(t *testing.T) {
	if got := roundTrip(t, Default, `9223372036854775807`); got != `9223372036854775807` {
		t.Fatalf("max int64: got %s", got)
	}
	if got := roundTrip(t, Default, `-9223372036854775808`); got != `-9223372036854775808` {
		t.Fatalf("min int64: got %s", got)
	}

	res, err := Default.Encode([]byte(`9223372036854775808`))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(res.Report.Lossy) != 1 {
		t.Fatalf("expected the lossy path to be reported, got %+v", res.Report)
	}
	got, err := Default.Decode(res.Bytes)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v, err := jsontree.ParseString(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.IsIntegerLiteral() {
		t.Fatalf("expected degradation to a float, got integer %s", got)
	}
	if got != "9.223372036854776e+18" {
		t.Fatalf("got %s", got)
	}
}

func TestRejectLossyNumbers(t *testing.T) {
	c := New(Options{RejectLossyNumbers: true})
	out := c.EncodeRequest(`{"a":[1,18446744073709551615]}`)
	if out.IsOk() {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(out.Message(), "/a/1") {
		t.Fatalf("message should name the path: %s", out.Message())
	}
	_, err := c.Encode([]byte(`18446744073709551615`))
	if !IsKind(err, KindLossy) {
		t.Fatalf("expected KindLossy, got %v", err)
	}
	if _, err := c.EncodeValue(ipld.List{ipld.LossyFloat{Value: 1, Original: "1"}}); !IsKind(err, KindLossy) {
		t.Fatalf("EncodeValue: expected KindLossy, got %v", err)
	}
	if got := roundTrip(t, c, `9223372036854775807`); got != `9223372036854775807` {
		t.Fatalf("in-range integers must still pass: %s", got)
	}
}

func TestEncodeRequest_MalformedJSON(t *testing.T) {
	out := EncodeDagCBOR("{not json")
	if out.IsOk() {
		t.Fatalf("expected failure")
	}
	if out.Tag() != "error" {
		t.Fatalf("tag: %s", out.Tag())
	}
	if !strings.HasPrefix(out.Message(), "Failed to parse JSON: ") {
		t.Fatalf("expected parse-stage message, got %q", out.Message())
	}
	if out.Value() != nil {
		t.Fatalf("failure must carry no payload")
	}
	_, err := Default.Encode([]byte("{not json"))
	if !IsKind(err, KindParse) {
		t.Fatalf("expected KindParse, got %v", err)
	}
}

func TestEncodeRequest_CodecFailure(t *testing.T) {
	out := EncodeDagCBOR(`{"x":1e400}`)
	if out.IsOk() {
		t.Fatalf("expected failure for an infinite float")
	}
	if !strings.HasPrefix(out.Message(), "Failed to encode to DAG-CBOR: ") {
		t.Fatalf("expected encode-stage message, got %q", out.Message())
	}
}

func TestDecodeRequest_TruncatedBytes(t *testing.T) {
	enc := EncodeDagCBOR(`{"a":[1,2,3],"b":"` + testCIDv1 + `"}`)
	if !enc.IsOk() {
		t.Fatalf("EncodeDagCBOR: %s", enc.Message())
	}
	full := enc.Value()
	for n := 0; n < len(full); n++ {
		out := DecodeDagCBOR(full[:n])
		if out.IsOk() {
			t.Fatalf("truncated to %d bytes: expected failure, got %s", n, out.Value())
		}
		if !strings.HasPrefix(out.Message(), "Failed to parse DAG-CBOR: ") {
			t.Fatalf("truncated to %d bytes: unexpected message %q", n, out.Message())
		}
	}
}

func TestDecodeRequest_OutsideDataModel(t *testing.T) {
	cases := map[string]string{
		"foreign tag":     "d8206161",
		"epoch time tag":  "c11a514b67b0",
		"below min int64": "3bffffffffffffffff",
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := hex.DecodeString(h)
			if err != nil {
				t.Fatal(err)
			}
			out := DecodeDagCBOR(b)
			if out.IsOk() {
				t.Fatalf("expected failure, got %s", out.Value())
			}
			if !strings.HasPrefix(out.Message(), "Failed to parse DAG-CBOR: ") {
				t.Fatalf("unexpected message %q", out.Message())
			}
		})
	}
}

func TestDecodeRequest_Uint64AboveInt64(t *testing.T) {
	b, err := hex.DecodeString("1bffffffffffffffff")
	if err != nil {
		t.Fatal(err)
	}
	out := DecodeDagCBOR(b)
	if !out.IsOk() {
		t.Fatalf("DecodeDagCBOR: %s", out.Message())
	}
	if out.Value() != "18446744073709551615" {
		t.Fatalf("got %s", out.Value())
	}
}

func TestEncodeRequest_InvalidUTF8(t *testing.T) {
	out := EncodeDagCBOR("\"\xff\"")
	if out.IsOk() {
		t.Fatalf("expected failure, got %x", out.Value())
	}
	if !strings.HasPrefix(out.Message(), "Failed to parse JSON: ") {
		t.Fatalf("expected parse-stage message, got %q", out.Message())
	}
}

func TestDecodeRequest_RandomBytes(t *testing.T) {
	buf := make([]byte, 64)
	for i := 0; i < 50; i++ {
		if _, err := rand.Read(buf); err != nil {
			t.Fatalf("rand: %v", err)
		}
		// 0x5b announces an 8-byte length that 63 remaining bytes cannot satisfy.
		b := append([]byte{0x5b}, buf[:63]...)
		out := DecodeDagCBOR(b)
		if out.IsOk() {
			t.Fatalf("expected failure for %x", b)
		}
	}
}

func TestOutcome(t *testing.T) {
	ok := Ok([]byte{1})
	if v, good := ok.Unpack(); !good || len(v) != 1 || ok.Tag() != "ok" || ok.Message() != "" {
		t.Fatalf("Ok outcome: %+v", ok)
	}
	fail := Fail[string]("boom")
	if v, good := fail.Unpack(); good || v != "" || fail.Message() != "boom" {
		t.Fatalf("Fail outcome: %+v", fail)
	}
}

func TestConverter_Indent(t *testing.T) {
	c := New(Options{Indent: "  "})
	got := roundTrip(t, c, `{"a":[1]}`)
	if got != "{\n  \"a\": [\n    1\n  ]\n}" {
		t.Fatalf("got %q", got)
	}
}

func TestConverter_TranslatorOptions(t *testing.T) {
	c := New(Options{Translator: translate.Translator{DisableImplicitLinks: true}})
	res, err := c.Encode([]byte(`["` + testCIDv1 + `"]`))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Report.Links != 0 {
		t.Fatalf("expected no implicit links, got %+v", res.Report)
	}
	if strings.Contains(hex.EncodeToString(res.Bytes), "d82a") {
		t.Fatalf("unexpected tag 42 in %x", res.Bytes)
	}
}

func TestConverter_ConcurrentUse(t *testing.T) {
	in := `{"cid":"` + testCIDv1 + `","n":[1,2.5,"x"]}`
	// canonical DAG-CBOR orders shorter keys first.
	want := `{"n":[1,2.5,"x"],"cid":{"42":"` + testCIDv1 + `"}}`
	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc := Default.EncodeRequest(in)
			if !enc.IsOk() {
				errs <- enc.Message()
				return
			}
			dec := Default.DecodeRequest(enc.Value())
			if !dec.IsOk() {
				errs <- dec.Message()
				return
			}
			if dec.Value() != want {
				errs <- dec.Value()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("concurrent conversion: %s", e)
	}
}
