// Package grpcbridge serves the JSON/DAG-CBOR conversions over gRPC.
//
// A conversion failure is not a transport failure: the server answers with
// codes.InvalidArgument carrying the Outcome message, and the client turns
// that status back into a failed Outcome.
package grpcbridge

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/dagcbor/bridge"
	"xdao.co/dagcbor/dagcbor"
)

// Server exposes a bridge.Converter over the Codec gRPC service.
type Server struct {
	UnimplementedCodecServer

	// Converter defaults to bridge.Default when nil.
	Converter *bridge.Converter
}

func (s *Server) converter() *bridge.Converter {
	if s == nil || s.Converter == nil {
		return bridge.Default
	}
	return s.Converter
}

func (s *Server) Encode(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	out := s.converter().EncodeRequest(in.GetValue())
	b, ok := out.Unpack()
	if !ok {
		return nil, status.Error(codes.InvalidArgument, out.Message())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Decode(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	out := s.converter().DecodeRequest(in.GetValue())
	text, ok := out.Unpack()
	if !ok {
		return nil, status.Error(codes.InvalidArgument, out.Message())
	}
	return wrapperspb.String(text), nil
}

func (s *Server) Inspect(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	diag, err := dagcbor.Diagnose(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.String(diag), nil
}
