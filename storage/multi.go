package storage

import (
	"github.com/ipfs/go-cid"
)

// MultiCAS reads through an ordered list of block stores and writes only to
// the first one. Callers fix the order; reads never reorder it.
type MultiCAS struct {
	Adapters []CAS
}

var (
	_ CAS    = MultiCAS{}
	_ Lister = MultiCAS{}
)

func (m MultiCAS) Put(block []byte) (cid.Cid, error) {
	if err := CheckBlock(block); err != nil {
		return cid.Undef, err
	}
	if len(m.Adapters) == 0 || m.Adapters[0] == nil {
		return cid.Undef, ErrNoBackends
	}
	return m.Adapters[0].Put(block)
}

func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	return firstVerified(id, m.Adapters)
}

func (m MultiCAS) Has(id cid.Cid) bool {
	return anyHas(id, m.Adapters)
}

// firstVerified returns the first copy of id that hashes back to id.
//
// A store that misses is skipped. A copy that fails verification is skipped
// as well, and its error surfaces only when no later store has a good copy.
// Any other error stops the walk.
func firstVerified(id cid.Cid, stores []CAS) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	var bad error
	for _, s := range stores {
		if s == nil {
			continue
		}
		b, err := s.Get(id)
		switch {
		case err == nil:
			if verr := VerifyBlock(id, b); verr != nil {
				bad = verr
				continue
			}
			return b, nil
		case IsNotFound(err):
			continue
		case IsIntegrity(err):
			bad = err
			continue
		default:
			return nil, err
		}
	}
	if bad != nil {
		return nil, bad
	}
	return nil, ErrNotFound
}

func anyHas(id cid.Cid, stores []CAS) bool {
	for _, s := range stores {
		if s != nil && s.Has(id) {
			return true
		}
	}
	return false
}

// List merges the listings of every adapter that can list, in adapter order
// and without duplicates.
func (m MultiCAS) List() ([]cid.Cid, error) {
	return listUnion(m.Adapters)
}

func listUnion(stores []CAS) ([]cid.Cid, error) {
	seen := make(map[cid.Cid]bool)
	var out []cid.Cid
	for _, s := range stores {
		if s == nil {
			continue
		}
		ids, ok, err := ListAll(s)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, nil
}
