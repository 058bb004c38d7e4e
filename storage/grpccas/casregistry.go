package grpccas

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casregistry"
)

var (
	flagTarget      string
	flagTimeout     time.Duration
	flagMaxMsgBytes int
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "Remote block store served by xdao-dagcbord",
		Usage:       casregistry.UsageCLI,
		Keys:        []string{"grpc-target", "grpc-timeout", "grpc-max-msg-bytes"},
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagTarget, "grpc-target", "", "Daemon address host:port (for --backend=grpc)")
			fs.DurationVar(&flagTimeout, "grpc-timeout", 10*time.Second, "Per-call timeout; 0 disables (for --backend=grpc)")
			fs.IntVar(&flagMaxMsgBytes, "grpc-max-msg-bytes", 0, "Send and receive limit in bytes; 0 keeps gRPC defaults (for --backend=grpc)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagTarget, DialOptions{Timeout: flagTimeout, MaxMsgBytes: flagMaxMsgBytes})
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			opts, err := dialOptionsFrom(cfg)
			if err != nil {
				return nil, nil, err
			}
			return open(cfg["grpc-target"], opts)
		},
	})
}

func dialOptionsFrom(cfg map[string]string) (DialOptions, error) {
	opts := DialOptions{Timeout: 10 * time.Second}
	if s := cfg["grpc-timeout"]; s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return opts, fmt.Errorf("grpc-timeout: %w", err)
		}
		opts.Timeout = d
	}
	if s := cfg["grpc-max-msg-bytes"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, fmt.Errorf("grpc-max-msg-bytes: %w", err)
		}
		opts.MaxMsgBytes = n
	}
	return opts, nil
}

func open(target string, opts DialOptions) (storage.CAS, func() error, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil, fmt.Errorf("grpc backend: missing --grpc-target")
	}
	c, err := Dial(target, opts)
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}
