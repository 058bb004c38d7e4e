package ipfs

import (
	"flag"
	"fmt"
	"os"
	"time"

	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casregistry"
)

var (
	flagBin     string
	flagRepo    string
	flagHash    string
	flagTimeout time.Duration
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "Local Kubo repo via the ipfs command (offline)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		Keys:        []string{"ipfs-bin", "ipfs-path", "ipfs-hash", "ipfs-timeout"},
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagBin, "ipfs-bin", defaultBin, "ipfs executable (for --backend=ipfs)")
			fs.StringVar(&flagRepo, "ipfs-path", "", "IPFS_PATH of the repo; empty inherits the environment (for --backend=ipfs)")
			fs.StringVar(&flagHash, "ipfs-hash", string(cidutil.DefaultHashAlg), "Multihash for block CIDs (for --backend=ipfs)")
			fs.DurationVar(&flagTimeout, "ipfs-timeout", 0, "Limit for each ipfs invocation; 0 waits forever (for --backend=ipfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(Options{Bin: flagBin, Hash: cidutil.HashAlg(flagHash), Timeout: flagTimeout}, flagRepo)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			opts := Options{Bin: cfg["ipfs-bin"], Hash: cidutil.HashAlg(cfg["ipfs-hash"])}
			if s := cfg["ipfs-timeout"]; s != "" {
				d, err := time.ParseDuration(s)
				if err != nil {
					return nil, nil, fmt.Errorf("ipfs-timeout: %w", err)
				}
				opts.Timeout = d
			}
			return open(opts, cfg["ipfs-path"])
		},
	})
}

func open(opts Options, repo string) (storage.CAS, func() error, error) {
	if repo != "" {
		opts.Env = append(os.Environ(), "IPFS_PATH="+repo)
	}
	cas, err := New(opts)
	if err != nil {
		return nil, nil, err
	}
	return cas, nil, nil
}
