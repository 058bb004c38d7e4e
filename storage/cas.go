package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/dagcbor"
)

// CAS stores encoded DAG-CBOR blocks keyed by CID.
//
// Every implementation follows the same rules:
//   - Put derives a CIDv1 with the dag-cbor codec from the bytes it stores.
//   - Put is idempotent and never replaces stored bytes (ErrImmutable).
//   - Put rejects anything that is not one well-formed CBOR item (ErrNotDagCBOR).
//   - Get reports an absent block as ErrNotFound.
type CAS interface {
	Put(block []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Lister is implemented by stores that can enumerate their blocks.
type Lister interface {
	List() ([]cid.Cid, error)
}

// ListAll enumerates cas, or reports false when it cannot list.
func ListAll(cas CAS) ([]cid.Cid, bool, error) {
	l, ok := cas.(Lister)
	if !ok {
		return nil, false, nil
	}
	ids, err := l.List()
	return ids, true, err
}

// CheckBlock validates block bytes before they are stored.
func CheckBlock(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty block", ErrNotDagCBOR)
	}
	if err := dagcbor.Wellformed(b); err != nil {
		return fmt.Errorf("%w: %v", ErrNotDagCBOR, err)
	}
	return nil
}

// BlockID validates b and derives its CID with alg.
func BlockID(b []byte, alg cidutil.HashAlg) (cid.Cid, error) {
	if err := CheckBlock(b); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.BlockCID(b, alg)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}
	return id, nil
}

// VerifyBlock checks that b hashes to id.
func VerifyBlock(id cid.Cid, b []byte) error {
	if !id.Defined() {
		return ErrInvalidCID
	}
	ok, err := cidutil.Matches(id, b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCID, err)
	}
	if !ok {
		return ErrCIDMismatch
	}
	return nil
}
