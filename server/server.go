// Package server wires the Codec and block store gRPC services into one
// daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"xdao.co/dagcbor/bridge"
	"xdao.co/dagcbor/bridge/grpcbridge"
	"xdao.co/dagcbor/config"
	"xdao.co/dagcbor/observability"
	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/casconfig"
	"xdao.co/dagcbor/storage/casregistry"
	"xdao.co/dagcbor/storage/grpccas"
	"xdao.co/dagcbor/storage/memory"
)

// Server is a gRPC server exposing xdao.dagcbor.v1.Codec and
// xdao.dagcbor.storage.v1.CAS.
type Server struct {
	grpc   *grpc.Server
	logger *zap.Logger
	closer func() error
}

// Options configures New.
type Options struct {
	Config *config.Config
	Logger *zap.Logger

	// CAS overrides Config.Storage when non-nil. The caller keeps ownership.
	CAS storage.CAS
}

// New builds a Server. Close releases the storage opened from config.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cas, closer := opts.CAS, func() error { return nil }
	if cas == nil {
		var err error
		cas, closer, err = OpenStorage(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	grpcOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(observability.UnaryServerLogger(logger)),
	}
	if cfg.MaxMsgBytes > 0 {
		grpcOpts = append(grpcOpts,
			grpc.MaxRecvMsgSize(cfg.MaxMsgBytes),
			grpc.MaxSendMsgSize(cfg.MaxMsgBytes),
		)
	}
	gs := grpc.NewServer(grpcOpts...)
	grpcbridge.RegisterCodecServer(gs, &grpcbridge.Server{Converter: bridge.New(cfg.Codec.Options())})
	grpccas.RegisterCASServer(gs, &grpccas.Server{CAS: cas})

	return &Server{grpc: gs, logger: logger, closer: closer}, nil
}

// OpenStorage opens the configured backends, or an in-process store when
// none are configured.
func OpenStorage(cfg casconfig.Config) (storage.CAS, func() error, error) {
	if len(cfg.Backends) == 0 {
		cas, err := memory.New("")
		if err != nil {
			return nil, nil, err
		}
		return cas, func() error { return nil }, nil
	}
	cas, closeFn, err := cfg.Open(casregistry.UsageDaemon, "")
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return cas, closeFn, nil
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully. It returns nil after a ctx-triggered stop.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- s.grpc.Serve(lis) }()

	s.logger.Info("listening", zap.String("addr", lis.Addr().String()))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		s.grpc.GracefulStop()
		if err := <-errc; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	}
}

// Close releases resources opened by New.
func (s *Server) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

// Run listens on cfg.Listen and serves until ctx is done.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	srv, err := New(Options{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer srv.Close()

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	return srv.Serve(ctx, lis)
}
