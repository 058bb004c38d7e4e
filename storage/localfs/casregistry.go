package localfs

import (
	"flag"
	"fmt"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casregistry"
)

var (
	flagLocalDir  string
	flagLocalHash string
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem block store (directory)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{"localfs-dir", "localfs-hash"},
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagLocalDir, "localfs-dir", "", "LocalFS block directory (for --backend=localfs)")
			fs.StringVar(&flagLocalHash, "localfs-hash", string(cidutil.DefaultHashAlg), "Multihash for block CIDs: sha2-256 or sha3-256 (for --backend=localfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagLocalDir, flagLocalHash)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			return open(cfg["localfs-dir"], cfg["localfs-hash"])
		},
	})
}

func open(dir, hash string) (storage.CAS, func() error, error) {
	if dir == "" {
		return nil, nil, fmt.Errorf("missing --localfs-dir")
	}
	alg, err := cidutil.ParseHashAlg(hash)
	if err != nil {
		return nil, nil, err
	}
	cas, err := NewWithHash(dir, alg)
	if err != nil {
		return nil, nil, err
	}
	return cas, nil, nil
}
