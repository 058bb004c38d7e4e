package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// NamedCAS is a block store plus the backend name it was opened under.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes every block to all of its backends and reads from
// the first backend holding a verified copy.
//
// All backends must derive the same CID for a block. Mixing sha2-256 and
// sha3-256 backends therefore fails every write with ErrCIDMismatch.
type ReplicatingCAS struct {
	Backends []NamedCAS
}

var (
	_ CAS    = ReplicatingCAS{}
	_ Lister = ReplicatingCAS{}
)

// PutAll stores block everywhere. It returns the agreed CID plus the CID
// each backend reported, keyed by backend name. On a disagreement the map
// still lists every backend written so far.
func (r ReplicatingCAS) PutAll(block []byte) (cid.Cid, map[string]cid.Cid, error) {
	if err := CheckBlock(block); err != nil {
		return cid.Undef, nil, err
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}

	ids := make(map[string]cid.Cid, len(r.Backends))
	var agreed cid.Cid
	for _, nb := range r.Backends {
		if nb.CAS == nil {
			return cid.Undef, ids, fmt.Errorf("storage: backend %q is not open", nb.Name)
		}
		id, err := nb.CAS.Put(block)
		if err != nil {
			return cid.Undef, ids, fmt.Errorf("storage: backend %q: %w", nb.Name, err)
		}
		ids[nb.Name] = id
		if !agreed.Defined() {
			agreed = id
		} else if !id.Equals(agreed) {
			return cid.Undef, ids, ErrCIDMismatch
		}
	}
	return agreed, ids, nil
}

func (r ReplicatingCAS) Put(block []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(block)
	return id, err
}

func (r ReplicatingCAS) Get(id cid.Cid) ([]byte, error) {
	return firstVerified(id, r.stores())
}

func (r ReplicatingCAS) Has(id cid.Cid) bool {
	return anyHas(id, r.stores())
}

func (r ReplicatingCAS) List() ([]cid.Cid, error) {
	return listUnion(r.stores())
}

func (r ReplicatingCAS) stores() []CAS {
	out := make([]CAS, 0, len(r.Backends))
	for _, nb := range r.Backends {
		out = append(out, nb.CAS)
	}
	return out
}
