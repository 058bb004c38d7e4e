// Package ipld is the linked-data value model: JSON's shapes plus a typed
// link variant for content identifiers.
//
// Values are built by the translate package and consumed by the dagcbor
// encoder. There is intentionally no conversion back to JSON here; decoding
// DAG-CBOR produces JSON trees directly.
package ipld

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// Kind names a linked-data variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindLossyFloat
	KindString
	KindLink
	KindList
	KindMap
)

var kindNames = [...]string{
	KindNull:       "null",
	KindBool:       "bool",
	KindInt:        "int",
	KindFloat:      "float",
	KindLossyFloat: "lossy-float",
	KindString:     "string",
	KindLink:       "link",
	KindList:       "list",
	KindMap:        "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one of Null, Bool, Int, Float, LossyFloat, String, Link, List, Map.
type Value interface {
	Kind() Kind
}

type Null struct{}

type Bool bool

type Int int64

type Float float64

// LossyFloat is an integer literal that did not fit int64 and was degraded
// to the nearest float64. Original keeps the literal as written.
type LossyFloat struct {
	Value    float64
	Original string
}

type String string

// Link is a typed reference to other content, encoded as CBOR tag 42.
type Link struct {
	Cid cid.Cid
}

type List []Value

// Entry is one map entry.
type Entry struct {
	Key   string
	Value Value
}

// Map keeps entries in insertion order. The encoder applies canonical
// key ordering.
type Map []Entry

func (Null) Kind() Kind       { return KindNull }
func (Bool) Kind() Kind       { return KindBool }
func (Int) Kind() Kind        { return KindInt }
func (Float) Kind() Kind      { return KindFloat }
func (LossyFloat) Kind() Kind { return KindLossyFloat }
func (String) Kind() Kind     { return KindString }
func (Link) Kind() Kind       { return KindLink }
func (List) Kind() Kind       { return KindList }
func (Map) Kind() Kind        { return KindMap }

// Lookup returns the value stored under key.
func (m Map) Lookup(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Walk visits v and every nested value depth-first, parents before
// children. Returning false from fn stops descent into that value.
func Walk(v Value, fn func(path string, v Value) bool) {
	walk("", v, fn)
}

func walk(path string, v Value, fn func(string, Value) bool) {
	if !fn(path, v) {
		return
	}
	switch t := v.(type) {
	case List:
		for i, item := range t {
			walk(fmt.Sprintf("%s/%d", path, i), item, fn)
		}
	case Map:
		for _, e := range t {
			walk(path+"/"+e.Key, e.Value, fn)
		}
	}
}

// LossyPaths lists the paths of every LossyFloat in v.
func LossyPaths(v Value) []string {
	var out []string
	Walk(v, func(path string, v Value) bool {
		if v.Kind() == KindLossyFloat {
			if path == "" {
				path = "/"
			}
			out = append(out, path)
		}
		return true
	})
	return out
}
