// Package bridge exposes the two conversions between JSON text and
// DAG-CBOR bytes.
//
// The directions are not inverses. Encoding parses JSON,
// promotes identifier-shaped strings to links (and wraps reserved fields
// such as "cid" as {"42": <link>}), then encodes canonical DAG-CBOR.
// Decoding turns DAG-CBOR straight into JSON text, rendering links as their
// CID string. Nothing on the decode path promotes strings back into links.
package bridge

import (
	"fmt"
	"strings"

	"xdao.co/dagcbor/dagcbor"
	"xdao.co/dagcbor/ipld"
	"xdao.co/dagcbor/jsontree"
	"xdao.co/dagcbor/translate"
)

// Message prefixes for each failing stage.
const (
	prefixParseJSON    = "Failed to parse JSON"
	prefixEncodeCBOR   = "Failed to encode to DAG-CBOR"
	prefixParseCBOR    = "Failed to parse DAG-CBOR"
	prefixEncodeJSON   = "Failed to encode to JSON"
	prefixLossyNumbers = "Refusing lossy integer conversion"
)

// Options configures a Converter. The zero value reproduces the default
// dual link convention with silent lossy number fallback.
type Options struct {
	// Translator controls link detection (policy, implicit promotion, tag key).
	Translator translate.Translator

	// RejectLossyNumbers fails encoding when an integer literal does not fit
	// int64, instead of encoding it as the nearest float.
	RejectLossyNumbers bool

	// Indent, when non-empty, pretty-prints decoded JSON with this indent.
	Indent string
}

// Converter runs encode and decode requests. It holds no mutable state and
// is safe for concurrent use.
type Converter struct {
	opts Options
}

// New returns a Converter with opts.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Default is the Converter behind EncodeDagCBOR and DecodeDagCBOR.
var Default = New(Options{})

// Result is the detailed result of Encode.
type Result struct {
	Bytes  []byte
	Report translate.Report
}

// Encode converts JSON text to DAG-CBOR bytes.
//
// The error is an *Error of KindParse, KindLossy or KindCodec.
func (c *Converter) Encode(jsonText []byte) (Result, error) {
	tree, err := jsontree.Parse(jsonText)
	if err != nil {
		return Result{}, wrapError(KindParse, prefixParseJSON, err)
	}
	v, rep := c.opts.Translator.Translate(tree)
	if c.opts.RejectLossyNumbers && len(rep.Lossy) > 0 {
		return Result{Report: rep}, lossyError(rep.Lossy)
	}
	b, err := dagcbor.Encode(v)
	if err != nil {
		return Result{Report: rep}, wrapError(KindCodec, prefixEncodeCBOR, err)
	}
	return Result{Bytes: b, Report: rep}, nil
}

// EncodeValue encodes an already-translated linked-data value.
func (c *Converter) EncodeValue(v ipld.Value) ([]byte, error) {
	if c.opts.RejectLossyNumbers {
		if paths := ipld.LossyPaths(v); len(paths) > 0 {
			return nil, lossyError(paths)
		}
	}
	b, err := dagcbor.Encode(v)
	if err != nil {
		return nil, wrapError(KindCodec, prefixEncodeCBOR, err)
	}
	return b, nil
}

// Decode converts DAG-CBOR bytes to JSON text.
//
// The error is an *Error of KindParse (bad bytes) or KindCodec (the decoded
// tree has no JSON rendering).
func (c *Converter) Decode(data []byte) (string, error) {
	tree, err := dagcbor.Decode(data)
	if err != nil {
		return "", wrapError(KindParse, prefixParseCBOR, err)
	}
	var out []byte
	if c.opts.Indent != "" {
		out, err = jsontree.MarshalIndent(tree, "", c.opts.Indent)
	} else {
		out, err = jsontree.Marshal(tree)
	}
	if err != nil {
		return "", wrapError(KindCodec, prefixEncodeJSON, err)
	}
	return string(out), nil
}

func lossyError(paths []string) error {
	return &Error{
		Kind:    KindLossy,
		Message: fmt.Sprintf("%s: integers outside int64 at %s", prefixLossyNumbers, strings.Join(paths, ", ")),
	}
}

// EncodeRequest is Encode wrapped in an Outcome.
func (c *Converter) EncodeRequest(jsonText string) Outcome[[]byte] {
	res, err := c.Encode([]byte(jsonText))
	return outcomeOf(res.Bytes, err)
}

// DecodeRequest is Decode wrapped in an Outcome.
func (c *Converter) DecodeRequest(data []byte) Outcome[string] {
	s, err := c.Decode(data)
	return outcomeOf(s, err)
}

// EncodeDagCBOR converts JSON text to DAG-CBOR with the default converter.
func EncodeDagCBOR(jsonText string) Outcome[[]byte] {
	return Default.EncodeRequest(jsonText)
}

// DecodeDagCBOR converts DAG-CBOR to JSON text with the default converter.
func DecodeDagCBOR(data []byte) Outcome[string] {
	return Default.DecodeRequest(data)
}
