package translate

import (
	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
)

// ReservedLinkField is the object key that receives the explicit
// {"42": <link>} wrapping under DefaultPolicy.
const ReservedLinkField = "cid"

// DefaultTagKey is the wrapper key for explicit links: the DAG-CBOR link
// tag number, stringified.
const DefaultTagKey = "42"

// Policy decides which strings become links.
//
// The two predicates are independent. LooksLikeIdentifier drives both the
// implicit promotion of any string and the explicit reserved-field form;
// IsReservedLinkField only selects which object keys use the explicit form.
type Policy interface {
	LooksLikeIdentifier(s string) (cid.Cid, bool)
	IsReservedLinkField(key string) bool
}

// FieldPolicy recognizes identifiers with cidutil.ParseIdentifier and
// treats the listed keys as reserved link fields.
type FieldPolicy struct {
	Reserved []string
}

// DefaultPolicy reserves only the "cid" key.
var DefaultPolicy Policy = FieldPolicy{Reserved: []string{ReservedLinkField}}

func (p FieldPolicy) LooksLikeIdentifier(s string) (cid.Cid, bool) {
	return cidutil.ParseIdentifier(s)
}

func (p FieldPolicy) IsReservedLinkField(key string) bool {
	for _, r := range p.Reserved {
		if r == key {
			return true
		}
	}
	return false
}
