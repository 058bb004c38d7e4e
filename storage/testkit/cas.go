package testkit

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/dagcbor"
	"xdao.co/dagcbor/ipld"
	"xdao.co/dagcbor/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

// Block returns a small canonical DAG-CBOR block carrying note.
func Block(note string) []byte {
	b, err := dagcbor.Encode(ipld.Map{{Key: "note", Value: ipld.String(note)}})
	if err != nil {
		panic(err)
	}
	return b
}

// LinkBlock returns a block whose "prev" field is a tag 42 link to prev.
func LinkBlock(note string, prev cid.Cid) []byte {
	b, err := dagcbor.Encode(ipld.Map{
		{Key: "note", Value: ipld.String(note)},
		{Key: "prev", Value: ipld.Link{Cid: prev}},
	})
	if err != nil {
		panic(err)
	}
	return b
}

// blockCID derives the expected CID under id's hash, or the default hash
// when id is undefined.
func blockCID(t *testing.T, b []byte, like cid.Cid) cid.Cid {
	t.Helper()
	alg := cidutil.DefaultHashAlg
	if like.Defined() {
		var err error
		if alg, err = cidutil.HashAlgOf(like); err != nil {
			t.Fatalf("HashAlgOf failed: %v", err)
		}
	}
	id, err := cidutil.BlockCID(b, alg)
	if err != nil {
		t.Fatalf("BlockCID failed: %v", err)
	}
	return id
}

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := Block("hello, dag-cbor storage")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		p := id.Prefix()
		if p.Version != 1 || p.Codec != cid.DagCBOR {
			t.Fatalf("Put returned non dag-cbor CIDv1: %s", id)
		}
		if wantID := blockCID(t, want, id); id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if ok, err := cidutil.Matches(id, got); err != nil || !ok {
			t.Fatalf("Get returned bytes not matching requested CID")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := Block("same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		probe, err := cas.Put(Block("probe"))
		if err != nil {
			t.Fatalf("Put(probe) failed: %v", err)
		}
		b := Block("missing")
		id := blockCID(t, b, probe)

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		_, err = cas.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectMalformedBlock", func(t *testing.T) {
		cas := newCAS(t)
		for _, b := range [][]byte{nil, []byte("plain text"), {0xa1, 0x61}} {
			if _, err := cas.Put(b); !errors.Is(err, storage.ErrNotDagCBOR) {
				t.Fatalf("Put(%x): got err=%v want ErrNotDagCBOR", b, err)
			}
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); err == nil {
			t.Fatalf("Get should fail for undefined CID")
		}
	})

	t.Run("LinkedBlocks", func(t *testing.T) {
		cas := newCAS(t)
		root, err := cas.Put(Block("root"))
		if err != nil {
			t.Fatalf("Put(root) failed: %v", err)
		}
		child := LinkBlock("child", root)
		id, err := cas.Put(child)
		if err != nil {
			t.Fatalf("Put(child) failed: %v", err)
		}
		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get(child) failed: %v", err)
		}
		tree, err := dagcbor.Decode(got)
		if err != nil {
			t.Fatalf("Decode(child) failed: %v", err)
		}
		prev, _ := tree.Lookup("prev")
		if prev.AsString() != root.String() {
			t.Fatalf("link lost: prev=%q want %s", prev.AsString(), root)
		}
	})

	t.Run("ConcurrentPut", func(t *testing.T) {
		cas := newCAS(t)
		const writers = 8
		ids := make([]cid.Cid, writers)
		errs := make([]error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// Half the writers race on one block, half write their own.
				note := "shared"
				if i%2 == 1 {
					note = fmt.Sprintf("own-%d", i)
				}
				ids[i], errs[i] = cas.Put(Block(note))
			}(i)
		}
		wg.Wait()
		for i, err := range errs {
			if err != nil {
				t.Fatalf("writer %d: %v", i, err)
			}
		}
		for i := 2; i < writers; i += 2 {
			if ids[i] != ids[0] {
				t.Fatalf("shared block got two CIDs: %s vs %s", ids[i], ids[0])
			}
		}
		for _, id := range ids {
			if !cas.Has(id) {
				t.Fatalf("Has(%s) false after concurrent Put", id)
			}
		}
	})

	t.Run("ListIncludesStoredBlocks", func(t *testing.T) {
		cas := newCAS(t)
		id, err := cas.Put(Block("listed"))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		ids, ok, err := storage.ListAll(cas)
		if !ok {
			t.Skip("store cannot list")
		}
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, got := range ids {
			if got == id {
				return
			}
		}
		t.Fatalf("List missing %s: %v", id, ids)
	})
}
