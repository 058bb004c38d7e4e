// Package memory is an in-process block store. Contents live only as long as
// the process and are never persisted.
package memory

import (
	"bytes"
	"flag"
	"slices"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casregistry"
)

type CAS struct {
	alg cidutil.HashAlg

	mu     sync.RWMutex
	blocks map[cid.Cid][]byte
}

var (
	_ storage.CAS    = (*CAS)(nil)
	_ storage.Lister = (*CAS)(nil)
)

// New returns an empty store that derives CIDs with alg ("" selects the default).
func New(alg cidutil.HashAlg) (*CAS, error) {
	alg, err := cidutil.ParseHashAlg(string(alg))
	if err != nil {
		return nil, err
	}
	return &CAS{alg: alg, blocks: make(map[cid.Cid][]byte)}, nil
}

func (c *CAS) Put(b []byte) (cid.Cid, error) {
	id, err := storage.BlockID(b, c.alg)
	if err != nil {
		return cid.Undef, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.blocks[id]; ok {
		if !bytes.Equal(existing, b) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	c.blocks[id] = bytes.Clone(b)
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	c.mu.RLock()
	b, ok := c.blocks[id]
	c.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(b), nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blocks[id]
	return ok
}

// List returns the stored CIDs sorted by their string form.
func (c *CAS) List() ([]cid.Cid, error) {
	c.mu.RLock()
	ids := make([]cid.Cid, 0, len(c.blocks))
	for id := range c.blocks {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	slices.SortFunc(ids, func(a, b cid.Cid) int { return strings.Compare(a.String(), b.String()) })
	return ids, nil
}

// Len reports the number of stored blocks.
func (c *CAS) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

var flagMemoryHash string

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "memory",
		Description: "In-process block store (not persisted)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{"memory-hash"},
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagMemoryHash, "memory-hash", string(cidutil.DefaultHashAlg), "Multihash for block CIDs (for --backend=memory)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagMemoryHash)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			return open(cfg["memory-hash"])
		},
	})
}

func open(hash string) (storage.CAS, func() error, error) {
	cas, err := New(cidutil.HashAlg(hash))
	if err != nil {
		return nil, nil, err
	}
	return cas, nil, nil
}
