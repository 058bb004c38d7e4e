package dagcbor

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"xdao.co/dagcbor/jsontree"
)

var errEmpty = errors.New("empty input")

// Decode parses one DAG-CBOR object into a JSON tree.
//
// Links decode to their CID string. Byte strings decode to arrays of
// integers. Unsigned integers above math.MaxInt64 keep their exact value.
// Truncated, malformed, or trailing input fails, as do tags other than 42.
func Decode(data []byte) (jsontree.Value, error) {
	if len(data) == 0 {
		return jsontree.Value{}, decodeError(errEmpty)
	}
	if err := Wellformed(data); err != nil {
		return jsontree.Value{}, decodeError(err)
	}
	if err := checkDataModel(data); err != nil {
		return jsontree.Value{}, decodeError(err)
	}
	nb := basicnode.Prototype.Any.NewBuilder()
	r := bytes.NewReader(data)
	opts := dagcbor.DecodeOptions{AllowLinks: true}
	if err := opts.Decode(nb, r); err != nil {
		return jsontree.Value{}, decodeError(err)
	}
	if r.Len() != 0 {
		return jsontree.Value{}, decodeError(fmt.Errorf("%d trailing bytes", r.Len()))
	}
	v, err := toTree(nb.Build())
	if err != nil {
		return jsontree.Value{}, decodeError(err)
	}
	return v, nil
}

func toTree(n datamodel.Node) (jsontree.Value, error) {
	switch n.Kind() {
	case datamodel.Kind_Null:
		return jsontree.Null(), nil
	case datamodel.Kind_Bool:
		b, err := n.AsBool()
		if err != nil {
			return jsontree.Value{}, err
		}
		return jsontree.Bool(b), nil
	case datamodel.Kind_Int:
		if un, ok := n.(datamodel.UintNode); ok {
			u, err := un.AsUint()
			if err != nil {
				return jsontree.Value{}, err
			}
			return jsontree.Number(strconv.FormatUint(u, 10)), nil
		}
		i, err := n.AsInt()
		if err != nil {
			return jsontree.Value{}, err
		}
		return jsontree.Int(i), nil
	case datamodel.Kind_Float:
		f, err := n.AsFloat()
		if err != nil {
			return jsontree.Value{}, err
		}
		return jsontree.Float(f), nil
	case datamodel.Kind_String:
		s, err := n.AsString()
		if err != nil {
			return jsontree.Value{}, err
		}
		return jsontree.String(s), nil
	case datamodel.Kind_Bytes:
		b, err := n.AsBytes()
		if err != nil {
			return jsontree.Value{}, err
		}
		items := make([]jsontree.Value, len(b))
		for i, c := range b {
			items[i] = jsontree.Int(int64(c))
		}
		return jsontree.Array(items...), nil
	case datamodel.Kind_Link:
		l, err := n.AsLink()
		if err != nil {
			return jsontree.Value{}, err
		}
		if cl, ok := l.(cidlink.Link); ok {
			return jsontree.String(cl.Cid.String()), nil
		}
		return jsontree.String(l.String()), nil
	case datamodel.Kind_List:
		items := make([]jsontree.Value, 0, n.Length())
		it := n.ListIterator()
		for !it.Done() {
			_, child, err := it.Next()
			if err != nil {
				return jsontree.Value{}, err
			}
			v, err := toTree(child)
			if err != nil {
				return jsontree.Value{}, err
			}
			items = append(items, v)
		}
		return jsontree.Array(items...), nil
	case datamodel.Kind_Map:
		members := make([]jsontree.Member, 0, n.Length())
		it := n.MapIterator()
		for !it.Done() {
			k, child, err := it.Next()
			if err != nil {
				return jsontree.Value{}, err
			}
			key, err := k.AsString()
			if err != nil {
				return jsontree.Value{}, fmt.Errorf("map key: %w", err)
			}
			v, err := toTree(child)
			if err != nil {
				return jsontree.Value{}, err
			}
			members = append(members, jsontree.Member{Key: key, Value: v})
		}
		return jsontree.Object(members...), nil
	default:
		return jsontree.Value{}, fmt.Errorf("unsupported node kind %v", n.Kind())
	}
}
