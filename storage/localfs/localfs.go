// Package localfs stores DAG-CBOR blocks as read-only files under a
// directory, one file per CID.
//
// Layout: <root>/<last two CID chars>/<cid>.cbor. Files are written to a
// temporary name and hard-linked into place, so a reader never sees a
// partial block and an existing block is never replaced.
package localfs

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
)

const blockExt = ".cbor"

type CAS struct {
	root string
	alg  cidutil.HashAlg
}

var (
	_ storage.CAS    = (*CAS)(nil)
	_ storage.Lister = (*CAS)(nil)
)

// New opens (creating if needed) a store at root with the default hash.
func New(root string) (*CAS, error) {
	return NewWithHash(root, cidutil.DefaultHashAlg)
}

func NewWithHash(root string, alg cidutil.HashAlg) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	alg, err := cidutil.ParseHashAlg(string(alg))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &CAS{root: root, alg: alg}, nil
}

// Root returns the store directory.
func (c *CAS) Root() string { return c.root }

func (c *CAS) Put(block []byte) (cid.Cid, error) {
	id, err := storage.BlockID(block, c.alg)
	if err != nil {
		return cid.Undef, err
	}
	dst := c.pathFor(id)
	if _, err := os.Stat(dst); err == nil {
		return id, c.sameAsStored(id, block)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return cid.Undef, err
	}

	tmp, err := writeTemp(filepath.Dir(dst), block)
	if err != nil {
		return cid.Undef, err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Lost a race with another writer of the same CID.
			return id, c.sameAsStored(id, block)
		}
		return cid.Undef, err
	}
	return id, nil
}

func (c *CAS) sameAsStored(id cid.Cid, block []byte) error {
	stored, err := c.Get(id)
	if err != nil || !bytes.Equal(stored, block) {
		// An unreadable or corrupt file is never repaired in place.
		return storage.ErrImmutable
	}
	return nil
}

func writeTemp(dir string, block []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	_, err = f.Write(block)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(name, 0o444)
	}
	if err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	b, err := os.ReadFile(c.pathFor(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := storage.VerifyBlock(id, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	info, err := os.Stat(c.pathFor(id))
	return err == nil && info.Mode().IsRegular()
}

// List returns the CIDs of every block file under the root. Files whose
// names do not parse as CIDs are skipped.
func (c *CAS) List() ([]cid.Cid, error) {
	var ids []cid.Cid
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, blockExt) {
			return nil
		}
		id, err := cid.Decode(strings.TrimSuffix(name, blockExt))
		if err != nil {
			return nil
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

func (c *CAS) pathFor(id cid.Cid) string {
	s := id.String()
	// base32 CIDv1 strings share their leading characters; the tail spreads.
	return filepath.Join(c.root, s[len(s)-2:], s+blockExt)
}
