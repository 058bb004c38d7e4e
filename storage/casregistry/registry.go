// Package casregistry links block store backends into a binary.
//
// A backend package registers itself from init. A program enables it by
// importing that package, usually as a blank import:
//
//	import _ "xdao.co/dagcbor/storage/localfs"
package casregistry

import (
	"errors"
	"flag"
	"fmt"
	"slices"
	"strings"
	"sync"

	"xdao.co/dagcbor/storage"
)

var (
	ErrUnknownBackend = errors.New("casregistry: unknown backend")
	ErrUnsupported    = errors.New("casregistry: backend not supported in this binary")
)

// Opener builds a block store. The returned close func may be nil.
type Opener func() (storage.CAS, func() error, error)

// ConfigOpener builds a block store from config-file keys.
type ConfigOpener func(cfg map[string]string) (storage.CAS, func() error, error)

// Backend describes one linked-in block store.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// Keys lists the config keys OpenConfig accepts. They match the flag
	// names RegisterFlags adds, e.g. "localfs-dir".
	Keys []string

	// RegisterFlags adds the backend's flags to fs. It runs once per process.
	RegisterFlags func(fs *flag.FlagSet)

	// Open builds the store from the values parsed into those flags.
	Open Opener

	// OpenConfig builds the store from a storage config entry. Optional.
	OpenConfig ConfigOpener
}

// Summary is the one-line listing used by the backends commands.
func (b Backend) Summary() string {
	var sb strings.Builder
	sb.WriteString(b.Name)
	sb.WriteByte('\t')
	sb.WriteString(b.Description)
	if len(b.Keys) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(b.Keys, ", "))
		sb.WriteByte(']')
	}
	return sb.String()
}

func (b Backend) validate() error {
	switch {
	case b.Name == "":
		return errors.New("casregistry: backend name is required")
	case b.Usage == 0:
		return fmt.Errorf("casregistry: backend %q has no usage", b.Name)
	case b.RegisterFlags == nil:
		return fmt.Errorf("casregistry: backend %q has no RegisterFlags", b.Name)
	case b.Open == nil:
		return fmt.Errorf("casregistry: backend %q has no Open", b.Name)
	case b.OpenConfig != nil && len(b.Keys) == 0:
		return fmt.Errorf("casregistry: backend %q accepts config but declares no keys", b.Name)
	}
	return nil
}

type registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

var reg = registry{backends: make(map[string]Backend)}

func Register(b Backend) error {
	if err := b.validate(); err != nil {
		return err
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, dup := reg.backends[b.Name]; dup {
		return fmt.Errorf("casregistry: backend %q registered twice", b.Name)
	}
	b.Keys = slices.Clone(b.Keys)
	reg.backends[b.Name] = b
	return nil
}

// MustRegister is Register for init funcs.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns the backends usable under usage, ordered by name.
func List(usage Usage) []Backend {
	reg.mu.RLock()
	out := make([]Backend, 0, len(reg.backends))
	for _, b := range reg.backends {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	reg.mu.RUnlock()
	slices.SortFunc(out, func(a, b Backend) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func Names(usage Usage) []string {
	var names []string
	for _, b := range List(usage) {
		names = append(names, b.Name)
	}
	return names
}

// RegisterFlags adds the flags of every backend usable under usage, so a
// single flag.Parse accepts whichever backend the user picks.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		b.RegisterFlags(fs)
	}
}

func get(name string, usage Usage) (Backend, error) {
	reg.mu.RLock()
	b, ok := reg.backends[name]
	reg.mu.RUnlock()
	if !ok {
		return Backend{}, fmt.Errorf("%w %q (linked: %s)", ErrUnknownBackend, name, strings.Join(Names(usage), ", "))
	}
	if !b.Usage.allows(usage) {
		return Backend{}, fmt.Errorf("%w: %q is %s only", ErrUnsupported, name, b.Usage)
	}
	return b, nil
}

// Open opens the named backend from its parsed flags.
func Open(name string, usage Usage) (storage.CAS, func() error, error) {
	b, err := get(name, usage)
	if err != nil {
		return nil, nil, err
	}
	return b.Open()
}

// OpenWithConfig opens the named backend from a storage config entry.
// Keys the backend does not declare are rejected.
func OpenWithConfig(name string, usage Usage, cfg map[string]string) (storage.CAS, func() error, error) {
	b, err := get(name, usage)
	if err != nil {
		return nil, nil, err
	}
	if b.OpenConfig == nil {
		return nil, nil, fmt.Errorf("casregistry: backend %q cannot be opened from config", name)
	}
	for k := range cfg {
		if !slices.Contains(b.Keys, k) {
			return nil, nil, fmt.Errorf("casregistry: backend %q: unknown config key %q (accepted: %s)", name, k, strings.Join(b.Keys, ", "))
		}
	}
	return b.OpenConfig(cfg)
}
