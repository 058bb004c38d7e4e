// Package casconfig opens block stores from a config file section instead of
// command-line flags. Backends still have to be linked into the binary with
// blank imports; see casregistry.
//
// Example (YAML; JSON and TOML work too):
//
//	write_policy: all
//	backends:
//	  - name: localfs
//	    config: {localfs-dir: /var/lib/dagcbor/blocks}
//	  - name: ipfs
//	    config: {ipfs-path: /var/lib/ipfs, ipfs-hash: sha2-256}
package casconfig

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/viper"

	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casregistry"
)

// WritePolicy decides how a multi-backend store handles Put.
type WritePolicy string

const (
	// WriteFirst writes to the first backend only. It is the default.
	WriteFirst WritePolicy = "first"
	// WriteAll writes to every backend and requires them to agree on the CID.
	WriteAll WritePolicy = "all"
)

type Config struct {
	WritePolicy WritePolicy     `json:"write_policy,omitempty" mapstructure:"write_policy"`
	Backends    []BackendConfig `json:"backends" mapstructure:"backends"`
}

// BackendConfig is one entry of Config.Backends.
type BackendConfig struct {
	// Name selects the casregistry backend.
	Name string `json:"name" mapstructure:"name"`
	// ID names this entry when the same backend appears twice. Defaults to Name.
	ID string `json:"id,omitempty" mapstructure:"id"`
	// Config holds backend keys, spelled like the backend's flags.
	Config map[string]string `json:"config,omitempty" mapstructure:"config"`
}

func (b BackendConfig) key() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// LoadFile reads a standalone storage config; the extension picks the format.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("casconfig: empty config path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("casconfig: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("casconfig: decode %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("casconfig: no backends configured")
	}
	switch c.WritePolicy {
	case "", WriteFirst, WriteAll:
	default:
		return fmt.Errorf("casconfig: write_policy %q is not %q or %q", c.WritePolicy, WriteFirst, WriteAll)
	}
	seen := make(map[string]bool, len(c.Backends))
	for i, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("casconfig: backends[%d] has no name", i)
		}
		if seen[b.key()] {
			return fmt.Errorf("casconfig: backend id %q used twice", b.key())
		}
		seen[b.key()] = true
	}
	return nil
}

// ordered moves the entry whose name or id is preferred to the front.
func (c Config) ordered(preferred string) ([]BackendConfig, error) {
	out := slices.Clone(c.Backends)
	if preferred == "" {
		return out, nil
	}
	i := slices.IndexFunc(out, func(b BackendConfig) bool {
		return b.Name == preferred || b.ID == preferred
	})
	if i < 0 {
		return nil, fmt.Errorf("casconfig: backend %q is not configured", preferred)
	}
	first := out[i]
	out = slices.Delete(out, i, i+1)
	return slices.Insert(out, 0, first), nil
}

type closers []func() error

func (cs closers) closeAll() error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		errs = append(errs, cs[i]())
	}
	return errors.Join(errs...)
}

// Open opens every configured backend and combines them per WritePolicy.
// A single backend is returned as is. A non-empty preferred backend is
// moved to the front, which makes it the write target under WriteFirst.
func (c Config) Open(usage casregistry.Usage, preferred string) (storage.CAS, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	entries, err := c.ordered(preferred)
	if err != nil {
		return nil, nil, err
	}

	var opened closers
	named := make([]storage.NamedCAS, 0, len(entries))
	for _, b := range entries {
		cas, closeFn, err := casregistry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			_ = opened.closeAll()
			return nil, nil, fmt.Errorf("casconfig: open %q: %w", b.key(), err)
		}
		if closeFn != nil {
			opened = append(opened, closeFn)
		}
		named = append(named, storage.NamedCAS{Name: b.key(), CAS: cas})
	}

	if len(named) == 1 {
		return named[0].CAS, opened.closeAll, nil
	}
	if c.WritePolicy == WriteAll {
		return storage.ReplicatingCAS{Backends: named}, opened.closeAll, nil
	}
	adapters := make([]storage.CAS, len(named))
	for i, n := range named {
		adapters[i] = n.CAS
	}
	return storage.MultiCAS{Adapters: adapters}, opened.closeAll, nil
}
