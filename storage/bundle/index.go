package bundle

import (
	"fmt"
	"slices"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/dagcbor"
	"xdao.co/dagcbor/ipld"
	"xdao.co/dagcbor/jsontree"
	"xdao.co/dagcbor/storage"
)

// FormatVersion is the index schema written by Export.
const FormatVersion = 1

// IndexName is the archive path of the manifest.
const IndexName = "index.cbor"

// Index is the decoded manifest. It is metadata only: block entries are
// always verified against their own bytes.
type Index struct {
	Version int
	Blocks  []IndexEntry
	// Labels maps caller-chosen names to block CIDs.
	Labels map[string]cid.Cid
}

type IndexEntry struct {
	CID       cid.Cid
	Size      int
	Multihash cidutil.HashAlg
}

// encode renders the manifest as a DAG-CBOR block whose CIDs are links.
func (x Index) encode() ([]byte, error) {
	blocks := make(ipld.List, 0, len(x.Blocks))
	for _, e := range x.Blocks {
		blocks = append(blocks, ipld.Map{
			{Key: "cid", Value: ipld.Link{Cid: e.CID}},
			{Key: "size", Value: ipld.Int(e.Size)},
			{Key: "multihash", Value: ipld.String(e.Multihash)},
		})
	}
	root := ipld.Map{
		{Key: "version", Value: ipld.Int(x.Version)},
		{Key: "cidCodec", Value: ipld.String("dag-cbor")},
		{Key: "blocks", Value: blocks},
	}
	if len(x.Labels) > 0 {
		names := make([]string, 0, len(x.Labels))
		for name := range x.Labels {
			names = append(names, name)
		}
		slices.Sort(names)
		labels := make(ipld.Map, 0, len(names))
		for _, name := range names {
			id := x.Labels[name]
			if name == "" {
				return nil, fmt.Errorf("bundle: empty label name")
			}
			if !id.Defined() {
				return nil, fmt.Errorf("bundle: label %q: %w", name, storage.ErrInvalidCID)
			}
			labels = append(labels, ipld.Entry{Key: name, Value: ipld.Link{Cid: id}})
		}
		root = append(root, ipld.Entry{Key: "labels", Value: labels})
	}
	return dagcbor.Encode(root)
}

// ParseIndex decodes an index.cbor block.
func ParseIndex(b []byte) (Index, error) {
	var x Index
	tree, err := dagcbor.Decode(b)
	if err != nil {
		return x, fmt.Errorf("bundle: index: %w", err)
	}
	version, ok := tree.Lookup("version")
	if !ok {
		return x, fmt.Errorf("bundle: index has no version")
	}
	v, ok := version.Int64()
	if !ok || v != FormatVersion {
		return x, fmt.Errorf("bundle: unsupported index version %s", version.Literal())
	}
	x.Version = int(v)

	blocks, _ := tree.Lookup("blocks")
	for i, item := range blocks.Items() {
		e, err := parseEntry(item)
		if err != nil {
			return x, fmt.Errorf("bundle: index blocks[%d]: %w", i, err)
		}
		x.Blocks = append(x.Blocks, e)
	}

	if labels, ok := tree.Lookup("labels"); ok {
		x.Labels = make(map[string]cid.Cid, labels.Len())
		for _, m := range labels.Members() {
			id, err := cid.Decode(m.Value.AsString())
			if err != nil {
				return x, fmt.Errorf("bundle: index label %q: %w", m.Key, err)
			}
			x.Labels[m.Key] = id
		}
	}
	return x, nil
}

func parseEntry(v jsontree.Value) (IndexEntry, error) {
	var e IndexEntry
	ref, _ := v.Lookup("cid")
	id, err := cid.Decode(ref.AsString())
	if err != nil {
		return e, err
	}
	e.CID = id
	if size, ok := v.Lookup("size"); ok {
		n, _ := size.Int64()
		e.Size = int(n)
	}
	if mh, ok := v.Lookup("multihash"); ok {
		e.Multihash = cidutil.HashAlg(mh.AsString())
	}
	return e, nil
}
