// Package bundle moves DAG-CBOR blocks between stores as a deterministic TAR
// archive.
//
// Each block lives at blocks/<cid>. An optional index.cbor manifest, itself a
// DAG-CBOR block, links to every exported block and to named labels.
package bundle

import (
	"archive/tar"
	"errors"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
)

const blockDir = "blocks/"

var errNilCAS = errors.New("bundle: nil block store")

type ExportOptions struct {
	// Labels is written to the index. Ignored without IncludeIndex.
	Labels map[string]cid.Cid
	// IncludeIndex appends index.cbor after the blocks.
	IncludeIndex bool
}

// Export writes the blocks for ids to w. The archive bytes depend only on
// the set of blocks: duplicates collapse, entries are sorted by CID string
// and every header is normalized.
func Export(w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return errNilCAS
	}
	sorted, err := uniqueSorted(ids)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(w)
	idx := Index{Version: FormatVersion, Labels: opts.Labels}
	for _, id := range sorted {
		b, err := cas.Get(id)
		if err == nil {
			err = storage.VerifyBlock(id, b)
		}
		if err != nil {
			_ = tw.Close()
			return err
		}
		alg, err := cidutil.HashAlgOf(id)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeEntry(tw, blockDir+id.String(), b); err != nil {
			_ = tw.Close()
			return err
		}
		idx.Blocks = append(idx.Blocks, IndexEntry{CID: id, Size: len(b), Multihash: alg})
	}

	if opts.IncludeIndex {
		b, err := idx.encode()
		if err == nil {
			err = writeEntry(tw, IndexName, b)
		}
		if err != nil {
			_ = tw.Close()
			return err
		}
	}
	return tw.Close()
}

func uniqueSorted(ids []cid.Cid) ([]cid.Cid, error) {
	out := make([]cid.Cid, 0, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return nil, storage.ErrInvalidCID
		}
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b cid.Cid) int { return strings.Compare(a.String(), b.String()) })
	return slices.CompactFunc(out, cid.Cid.Equals), nil
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	err := tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	})
	if err != nil {
		return err
	}
	_, err = tw.Write(content)
	return err
}

// entryPath normalizes an archive path, returning "" for anything that is
// empty or escapes the archive root.
func entryPath(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = strings.TrimPrefix(strings.TrimPrefix(name, "./"), "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		switch part {
		case "", ".", "..":
			return ""
		}
	}
	return name
}
