package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/storage"
)

type ImportOptions struct {
	// IgnoreUnknown skips entries other than blocks and the index. By
	// default they fail the import.
	IgnoreUnknown bool
}

// Import is ImportWithOptions with default options.
func Import(r io.Reader, cas storage.CAS) error {
	_, err := ImportWithOptions(r, cas, ImportOptions{})
	return err
}

// ImportWithOptions stores every block of the archive in cas and returns
// their CIDs in archive order.
//
// Each block must hash to the CID in its name, and cas must assign that same
// CID. When the archive carries an index, every block the index lists must
// have been imported.
func ImportWithOptions(r io.Reader, cas storage.CAS, opts ImportOptions) ([]cid.Cid, error) {
	if cas == nil {
		return nil, errNilCAS
	}
	im := importer{cas: cas, opts: opts, seen: make(map[cid.Cid]bool)}
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return im.done, im.checkIndex()
		}
		if err != nil {
			return im.done, err
		}
		if err := im.entry(h, tr); err != nil {
			return im.done, err
		}
	}
}

type importer struct {
	cas   storage.CAS
	opts  ImportOptions
	seen  map[cid.Cid]bool
	done  []cid.Cid
	index *Index
}

func (im *importer) entry(h *tar.Header, r io.Reader) error {
	name := entryPath(h.Name)
	if name == "" {
		return fmt.Errorf("bundle: invalid entry path %q", h.Name)
	}
	switch {
	case h.Typeflag != tar.TypeReg:
		if im.opts.IgnoreUnknown {
			return nil
		}
		return fmt.Errorf("bundle: %s: unexpected entry type %q", name, h.Typeflag)
	case name == IndexName:
		b, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		x, err := ParseIndex(b)
		if err != nil {
			return err
		}
		im.index = &x
		return nil
	case strings.HasPrefix(name, blockDir):
		return im.block(strings.TrimPrefix(name, blockDir), r)
	case im.opts.IgnoreUnknown:
		return nil
	default:
		return fmt.Errorf("bundle: unknown entry %s", name)
	}
}

func (im *importer) block(name string, r io.Reader) error {
	id, err := cid.Decode(name)
	if err != nil || !id.Defined() {
		return storage.ErrInvalidCID
	}
	if im.seen[id] {
		return fmt.Errorf("bundle: block %s appears twice", id)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := storage.VerifyBlock(id, b); err != nil {
		return err
	}
	got, err := im.cas.Put(b)
	if err != nil {
		return err
	}
	if !got.Equals(id) {
		return storage.ErrCIDMismatch
	}
	im.seen[id] = true
	im.done = append(im.done, id)
	return nil
}

func (im *importer) checkIndex() error {
	if im.index == nil {
		return nil
	}
	for _, e := range im.index.Blocks {
		if !im.seen[e.CID] {
			return fmt.Errorf("bundle: index lists %s but the archive does not carry it", e.CID)
		}
	}
	return nil
}
