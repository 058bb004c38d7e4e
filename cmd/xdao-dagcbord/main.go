package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"xdao.co/dagcbor/config"
	"xdao.co/dagcbor/observability"
	"xdao.co/dagcbor/server"
	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casregistry"

	_ "xdao.co/dagcbor/storage/ipfs"
	_ "xdao.co/dagcbor/storage/localfs"
	_ "xdao.co/dagcbor/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("xdao-dagcbord", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "Config file (YAML)")
	listen := fs.String("listen", "", "Listen address (overrides config)")
	backend := fs.String("backend", "", "Block store backend; overrides storage from config")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	casregistry.RegisterFlags(fs, casregistry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			fmt.Fprintln(out, b.Summary())
		}
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	opts := server.Options{Config: cfg, Logger: logger}
	if *backend != "" {
		var closeFn func() error
		opts.CAS, closeFn, err = openBackend(*backend)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		defer closeFn()
	}

	srv, err := server.New(opts)
	if err != nil {
		logger.Error("setup failed", zap.Error(err))
		return 2
	}
	defer srv.Close()

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		logger.Error("listen failed", zap.Error(err))
		return 1
	}

	logger.Info("xdao-dagcbord starting", zap.String("listen", lis.Addr().String()), zap.String("backend", *backend))
	if err := srv.Serve(ctx, lis); err != nil {
		logger.Error("serve failed", zap.Error(err))
		return 1
	}
	return 0
}

func openBackend(name string) (storage.CAS, func() error, error) {
	cas, closeFn, err := casregistry.Open(name, casregistry.UsageDaemon)
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return cas, closeFn, nil
}
