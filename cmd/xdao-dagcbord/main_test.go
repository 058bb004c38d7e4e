package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRun_ListBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"-list-backends"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	for _, name := range []string{"ipfs", "localfs", "memory"} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("missing backend %s in %q", name, out.String())
		}
	}
}

func TestRun_BadFlagsAndBackend(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"-no-such-flag"}, &out, &errOut); code != 2 {
		t.Fatalf("bad flag: exit %d", code)
	}
	errOut.Reset()
	code := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &out, &errOut)
	if code != 2 {
		t.Fatalf("missing config: exit %d", code)
	}
	errOut.Reset()
	code = run(context.Background(), []string{"-backend", "localfs"}, &out, &errOut)
	if code != 2 || !strings.Contains(errOut.String(), "localfs-dir") {
		t.Fatalf("missing localfs dir: exit %d %q", code, errOut.String())
	}
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var out, errOut bytes.Buffer
	code := run(ctx, []string{"-listen", "127.0.0.1:0", "-backend", "memory"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
}
