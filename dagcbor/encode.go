// Package dagcbor adapts the go-ipld-prime DAG-CBOR codec to this module's
// value models.
//
// Encode consumes linked-data values (links become tag 42). Decode yields a
// JSON tree directly: links come back as their CID string and are never
// reconstructed as link objects.
package dagcbor

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"xdao.co/dagcbor/ipld"
)

// Encode returns the canonical DAG-CBOR bytes of v.
func Encode(v ipld.Value) ([]byte, error) {
	n, err := Node(v)
	if err != nil {
		return nil, encodeError(err)
	}
	var buf bytes.Buffer
	if err := dagcbor.Encode(n, &buf); err != nil {
		return nil, encodeError(err)
	}
	return buf.Bytes(), nil
}

// Node builds a go-ipld-prime basicnode tree for v.
func Node(v ipld.Value) (datamodel.Node, error) {
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := assemble(nb, v); err != nil {
		return nil, err
	}
	return nb.Build(), nil
}

func assemble(na datamodel.NodeAssembler, v ipld.Value) error {
	switch t := v.(type) {
	case nil:
		return errors.New("nil value")
	case ipld.Null:
		return na.AssignNull()
	case ipld.Bool:
		return na.AssignBool(bool(t))
	case ipld.Int:
		return na.AssignInt(int64(t))
	case ipld.Float:
		if err := checkFinite(float64(t)); err != nil {
			return err
		}
		return na.AssignFloat(float64(t))
	case ipld.LossyFloat:
		if err := checkFinite(t.Value); err != nil {
			return fmt.Errorf("integer %s: %w", t.Original, err)
		}
		return na.AssignFloat(t.Value)
	case ipld.String:
		return na.AssignString(string(t))
	case ipld.Link:
		if !t.Cid.Defined() {
			return errors.New("undefined cid in link")
		}
		return na.AssignLink(cidlink.Link{Cid: t.Cid})
	case ipld.List:
		la, err := na.BeginList(int64(len(t)))
		if err != nil {
			return err
		}
		for i, item := range t {
			if err := assemble(la.AssembleValue(), item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return la.Finish()
	case ipld.Map:
		ma, err := na.BeginMap(int64(len(t)))
		if err != nil {
			return err
		}
		for _, e := range t {
			if err := ma.AssembleKey().AssignString(e.Key); err != nil {
				return fmt.Errorf("key %q: %w", e.Key, err)
			}
			if err := assemble(ma.AssembleValue(), e.Value); err != nil {
				return fmt.Errorf("%q: %w", e.Key, err)
			}
		}
		return ma.Finish()
	default:
		return fmt.Errorf("unsupported value %T", v)
	}
}

func checkFinite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite float %v is not allowed in DAG-CBOR", f)
	}
	return nil
}
