package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/dagcbor/config"
)

func TestSetupLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "d.log")
	logger, err := SetupLogger(config.LogConfig{Level: "warning", Format: "json", Outputs: []string{path}})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", zap.String("k", "v"))
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "dropped") || !strings.Contains(string(b), `"k":"v"`) {
		t.Fatalf("unexpected log file content: %s", b)
	}
}

func TestSetupLogger_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotated.log")
	logger, err := SetupLogger(config.LogConfig{
		Level:    "info",
		Outputs:  []string{"ignored.log"},
		Rotation: config.RotationConfig{Enable: true, Filename: path},
	})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("rotation filename not used: %v", err)
	}
}

func TestUnaryServerLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	intercept := UnaryServerLogger(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: "/xdao.dagcbor.v1.Codec/Encode"}

	cases := []struct {
		err   error
		level string
	}{
		{nil, "debug"},
		{status.Error(codes.InvalidArgument, "Failed to parse JSON: x"), "info"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		_, err := intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return nil, tc.err
		})
		if err != tc.err {
			t.Fatalf("interceptor must pass errors through, got %v", err)
		}
	}

	entries := logs.All()
	if len(entries) != len(cases) {
		t.Fatalf("expected %d entries, got %d", len(cases), len(entries))
	}
	for i, e := range entries {
		if e.Level.String() != cases[i].level {
			t.Fatalf("entry %d: level %s want %s", i, e.Level, cases[i].level)
		}
		if e.ContextMap()["method"] != info.FullMethod {
			t.Fatalf("entry %d: method field %v", i, e.ContextMap()["method"])
		}
	}
}
