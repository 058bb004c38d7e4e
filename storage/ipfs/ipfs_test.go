package ipfs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/testkit"
)

// fakeKubo mimics the three block subcommands the adapter uses.
const fakeKubo = `#!/bin/sh
echo "$@" >> "$FAKE_DIR/args"
case "$1 $2" in
"block put")
	cat > "$FAKE_DIR/$FAKE_PUT_CID"
	echo "$FAKE_PUT_CID"
	;;
"block get")
	if [ -f "$FAKE_DIR/$3" ]; then cat "$FAKE_DIR/$3"; else echo "Error: block was not found locally (offline)" >&2; exit 1; fi
	;;
"block stat")
	[ -f "$FAKE_DIR/$3" ] || { echo "Error: block not found" >&2; exit 1; }
	;;
*)
	exit 2
	;;
esac
`

func newFake(t *testing.T, putCID cid.Cid) (*CAS, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "ipfs")
	if err := os.WriteFile(bin, []byte(fakeKubo), 0o755); err != nil {
		t.Fatal(err)
	}
	store := filepath.Join(dir, "blocks")
	if err := os.MkdirAll(store, 0o755); err != nil {
		t.Fatal(err)
	}
	cas, err := New(Options{
		Bin: bin,
		Env: []string{"PATH=" + os.Getenv("PATH"), "FAKE_DIR=" + store, "FAKE_PUT_CID=" + putCID.String()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return cas, store
}

func TestIPFS_PutGetHas(t *testing.T) {
	block := testkit.Block("kubo")
	id, err := cidutil.BlockCID(block, cidutil.SHA2_256)
	if err != nil {
		t.Fatal(err)
	}
	cas, store := newFake(t, id)

	if cas.Has(id) {
		t.Fatalf("Has before Put")
	}
	if _, err := cas.Get(id); !storage.IsNotFound(err) {
		t.Fatalf("Get before Put: got %v want ErrNotFound", err)
	}

	got, err := cas.Put(block)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !got.Equals(id) {
		t.Fatalf("Put: got %s want %s", got, id)
	}
	if !cas.Has(id) {
		t.Fatalf("Has after Put")
	}
	b, err := cas.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(b) != string(block) {
		t.Fatalf("Get bytes mismatch")
	}

	args, err := os.ReadFile(filepath.Join(store, "args"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(args), "--cid-codec=dag-cbor") || !strings.Contains(string(args), "--mhtype=sha2-256") {
		t.Fatalf("block put flags: %s", args)
	}
}

func TestIPFS_PutRejectsForeignCID(t *testing.T) {
	other, err := cidutil.BlockCID(testkit.Block("other"), cidutil.SHA2_256)
	if err != nil {
		t.Fatal(err)
	}
	cas, _ := newFake(t, other)
	if _, err := cas.Put(testkit.Block("mine")); err != storage.ErrCIDMismatch {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestIPFS_PutRejectsMalformed(t *testing.T) {
	cas, err := New(Options{Bin: "/nonexistent/ipfs"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cas.Put([]byte{0xff}); err == nil {
		t.Fatalf("expected malformed block error before shelling out")
	}
}

func TestIPFS_RejectsUnknownHash(t *testing.T) {
	if _, err := New(Options{Hash: "md5"}); err == nil {
		t.Fatalf("expected unsupported hash error")
	}
}

func TestIPFS_CommandErrorAndTimeout(t *testing.T) {
	cas, err := New(Options{Bin: "/nonexistent/ipfs", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	id, err := cidutil.BlockCID(testkit.Block("x"), cidutil.SHA2_256)
	if err != nil {
		t.Fatal(err)
	}
	_, err = cas.Get(id)
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %T %v", err, err)
	}
	if storage.IsNotFound(err) {
		t.Fatalf("a missing binary is not a missing block")
	}
	if !strings.HasPrefix(ce.Error(), "ipfs block get: ") {
		t.Fatalf("message: %q", ce.Error())
	}
}
