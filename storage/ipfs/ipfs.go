// Package ipfs keeps DAG-CBOR blocks in a local Kubo repository by running
// the ipfs command. No daemon or network access is needed; every call works
// on the repo directly.
package ipfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
)

const defaultBin = "ipfs"

type Options struct {
	// Bin is the ipfs executable. Defaults to "ipfs" on PATH.
	Bin string
	// Env replaces the command environment, e.g. to point IPFS_PATH at a
	// repo. Nil inherits the process environment.
	Env []string
	// Hash picks the multihash Kubo uses. Defaults to cidutil.DefaultHashAlg.
	Hash cidutil.HashAlg
	// Timeout bounds each ipfs invocation. Zero means no limit.
	Timeout time.Duration
}

// CAS derives the same CIDv1 dag-cbor CIDs as cidutil.BlockCID and checks
// every block Kubo returns against the requested CID.
type CAS struct {
	opts Options
}

var _ storage.CAS = (*CAS)(nil)

func New(opts Options) (*CAS, error) {
	if opts.Bin == "" {
		opts.Bin = defaultBin
	}
	alg, err := cidutil.ParseHashAlg(string(opts.Hash))
	if err != nil {
		return nil, err
	}
	opts.Hash = alg
	return &CAS{opts: opts}, nil
}

// CommandError is a failed ipfs invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := e.Stderr
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("ipfs %s: %s", strings.Join(e.Args[:min(2, len(e.Args))], " "), msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// notFound matches Kubo's messages for blocks missing from the repo.
func (e *CommandError) notFound() bool {
	s := strings.ToLower(e.Stderr)
	return strings.Contains(s, "not found") || strings.Contains(s, "could not find")
}

func (c *CAS) Put(block []byte) (cid.Cid, error) {
	want, err := storage.BlockID(block, c.opts.Hash)
	if err != nil {
		return cid.Undef, err
	}
	out, err := c.exec(block, c.putArgs()...)
	if err != nil {
		return cid.Undef, err
	}
	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: block put printed %q: %w", bytes.TrimSpace(out), err)
	}
	if !got.Equals(want) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return want, nil
}

// putArgs pins every CID parameter so Kubo cannot fall back to its defaults.
func (c *CAS) putArgs() []string {
	return []string{
		"block", "put", "--quiet",
		"--cid-version=1",
		"--cid-codec=dag-cbor",
		"--mhtype=" + string(c.opts.Hash),
		"--mhlen=32",
		"/dev/stdin",
	}
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	out, err := c.exec(nil, "block", "get", id.String())
	var ce *CommandError
	if errors.As(err, &ce) && ce.notFound() {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := storage.VerifyBlock(id, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := c.exec(nil, "block", "stat", id.String())
	return err == nil
}

func (c *CAS) exec(stdin []byte, args ...string) ([]byte, error) {
	ctx := context.Background()
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.opts.Bin, args...)
	cmd.Env = c.opts.Env
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, &CommandError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return out, nil
}
