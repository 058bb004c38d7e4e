// Package translate converts generic JSON trees into linked-data values.
//
// The conversion is one-directional. Strings that parse as content
// identifiers become links; reserved fields such as "cid" get the explicit
// {"42": <link>} shape. Nothing in this package turns links back into text;
// that happens when DAG-CBOR is decoded.
package translate

import (
	"strconv"

	"xdao.co/dagcbor/ipld"
	"xdao.co/dagcbor/jsontree"
)

// Translator converts jsontree values to ipld values. The zero value uses
// DefaultPolicy, implicit promotion and the "42" tag key.
type Translator struct {
	Policy Policy

	// DisableImplicitLinks keeps identifier-shaped strings as text unless
	// they sit under a reserved link field.
	DisableImplicitLinks bool

	// TagKey overrides the wrapper key of explicit links.
	TagKey string
}

// Report describes which non-structural paths a translation took.
type Report struct {
	// Links counts strings promoted to links implicitly.
	Links int
	// TaggedLinks counts reserved fields emitted as {"42": <link>}.
	TaggedLinks int
	// Lossy holds the paths of integers that degraded to LossyFloat.
	Lossy []string
}

// ToLinkedData translates v. It never fails.
func ToLinkedData(v jsontree.Value) ipld.Value {
	return Translator{}.ToLinkedData(v)
}

// ToLinkedData translates v. It never fails.
func (t Translator) ToLinkedData(v jsontree.Value) ipld.Value {
	out, _ := t.Translate(v)
	return out
}

// Translate translates v and reports the heuristic and lossy paths taken.
func (t Translator) Translate(v jsontree.Value) (ipld.Value, Report) {
	var rep Report
	out := t.value("", v, &rep)
	return out, rep
}

func (t Translator) policy() Policy {
	if t.Policy == nil {
		return DefaultPolicy
	}
	return t.Policy
}

func (t Translator) tagKey() string {
	if t.TagKey == "" {
		return DefaultTagKey
	}
	return t.TagKey
}

func (t Translator) value(path string, v jsontree.Value, rep *Report) ipld.Value {
	switch v.Kind() {
	case jsontree.KindNull:
		return ipld.Null{}
	case jsontree.KindBool:
		return ipld.Bool(v.AsBool())
	case jsontree.KindNumber:
		return number(path, v, rep)
	case jsontree.KindString:
		s := v.AsString()
		if !t.DisableImplicitLinks {
			if id, ok := t.policy().LooksLikeIdentifier(s); ok {
				rep.Links++
				return ipld.Link{Cid: id}
			}
		}
		return ipld.String(s)
	case jsontree.KindArray:
		items := v.Items()
		out := make(ipld.List, 0, len(items))
		for i, item := range items {
			out = append(out, t.value(path+"/"+strconv.Itoa(i), item, rep))
		}
		return out
	case jsontree.KindObject:
		members := v.Members()
		out := make(ipld.Map, 0, len(members))
		for _, m := range members {
			if link, ok := t.taggedLink(m); ok {
				rep.TaggedLinks++
				out = append(out, ipld.Entry{Key: m.Key, Value: link})
				continue
			}
			out = append(out, ipld.Entry{Key: m.Key, Value: t.value(path+"/"+m.Key, m.Value, rep)})
		}
		return out
	default:
		return ipld.Null{}
	}
}

// taggedLink returns {"42": <link>} for a reserved field holding an
// identifier string.
func (t Translator) taggedLink(m jsontree.Member) (ipld.Value, bool) {
	p := t.policy()
	if !p.IsReservedLinkField(m.Key) || m.Value.Kind() != jsontree.KindString {
		return nil, false
	}
	id, ok := p.LooksLikeIdentifier(m.Value.AsString())
	if !ok {
		return nil, false
	}
	return ipld.Map{{Key: t.tagKey(), Value: ipld.Link{Cid: id}}}, true
}

func number(path string, v jsontree.Value, rep *Report) ipld.Value {
	if i, ok := v.Int64(); ok {
		return ipld.Int(i)
	}
	f, err := v.Float64()
	if err != nil {
		return ipld.Null{}
	}
	if v.IsIntegerLiteral() {
		if path == "" {
			path = "/"
		}
		rep.Lossy = append(rep.Lossy, path)
		return ipld.LossyFloat{Value: f, Original: v.Literal()}
	}
	return ipld.Float(f)
}
