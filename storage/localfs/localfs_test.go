package localfs

import (
	"os"
	"path/filepath"
	"testing"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		cas, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return cas
	})
}

func TestLocalFS_SHA3Conformance(t *testing.T) {
	cas, err := NewWithHash(t.TempDir(), cidutil.SHA3_256)
	if err != nil {
		t.Fatalf("NewWithHash failed: %v", err)
	}
	id, err := cas.Put(testkit.Block("sha3"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	alg, err := cidutil.HashAlgOf(id)
	if err != nil || alg != cidutil.SHA3_256 {
		t.Fatalf("HashAlgOf: %v %v", alg, err)
	}
	if _, err := cas.Get(id); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	cas, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := testkit.Block("original")
	id, err := cas.Put(orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the stored object out-of-band.
	path := cas.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, testkit.Block("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Get must detect hash mismatch.
	_, err = cas.Get(id)
	if err != storage.ErrCIDMismatch {
		t.Fatalf("Get mismatch: got %v want %v", err, storage.ErrCIDMismatch)
	}

	// Put must not "repair" or overwrite the corrupted object.
	_, err = cas.Put(orig)
	if err != storage.ErrImmutable {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}

	wantID, err := cidutil.BlockCID(orig, cidutil.SHA2_256)
	if err != nil {
		t.Fatalf("BlockCID failed: %v", err)
	}
	if id != wantID {
		t.Fatalf("unexpected CID: got %s want %s", id, wantID)
	}
}

func TestLocalFS_Registry(t *testing.T) {
	_, _, err := open("", "")
	if err == nil {
		t.Fatalf("expected missing dir error")
	}
	if _, _, err := open(t.TempDir(), "md5"); err == nil {
		t.Fatalf("expected unsupported hash error")
	}
	cas, closeFn, err := open(t.TempDir(), "sha3-256")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if closeFn != nil {
		t.Fatalf("localfs has nothing to close")
	}
	if cas.(*CAS).alg != cidutil.SHA3_256 {
		t.Fatalf("hash option not applied")
	}
}

func TestLocalFS_ListAndLayout(t *testing.T) {
	cas, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	want := map[string]bool{}
	for _, note := range []string{"a", "b", "c"} {
		id, err := cas.Put(testkit.Block(note))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		want[id.String()] = true
		if filepath.Ext(cas.pathFor(id)) != ".cbor" {
			t.Fatalf("unexpected block path %s", cas.pathFor(id))
		}
	}
	// Stray files are ignored.
	if err := os.WriteFile(filepath.Join(cas.Root(), "README"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := cas.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != len(want) {
		t.Fatalf("List: got %d ids want %d", len(ids), len(want))
	}
	for _, id := range ids {
		if !want[id.String()] {
			t.Fatalf("unexpected id %s", id)
		}
	}
}
