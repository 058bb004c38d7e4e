package grpccas

import (
	"context"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/dagcbor/storage"
)

var errNoStore = status.Error(codes.FailedPrecondition, "grpccas: no block store behind this server")

// Server serves a storage.CAS. Blocks are checked on the way in and on the
// way out, so a misbehaving backend cannot hand out bytes that do not match
// their CID.
type Server struct {
	UnimplementedCASServer
	CAS storage.CAS
}

func (s *Server) store() (storage.CAS, error) {
	if s == nil || s.CAS == nil {
		return nil, errNoStore
	}
	return s.CAS, nil
}

func (s *Server) Put(_ context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	cas, err := s.store()
	if err != nil {
		return nil, err
	}
	block := in.GetValue()
	if err := storage.CheckBlock(block); err != nil {
		return nil, toStatus(err)
	}
	id, err := cas.Put(block)
	if err == nil {
		err = storage.VerifyBlock(id, block)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	cas, err := s.store()
	if err != nil {
		return nil, err
	}
	id, err := requestCID(in)
	if err != nil {
		return nil, err
	}
	block, err := cas.Get(id)
	if err == nil {
		err = storage.VerifyBlock(id, block)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(block), nil
}

func (s *Server) Has(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	cas, err := s.store()
	if err != nil {
		return nil, err
	}
	id, err := requestCID(in)
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bool(cas.Has(id)), nil
}

func (s *Server) List(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	cas, err := s.store()
	if err != nil {
		return nil, err
	}
	ids, ok, err := storage.ListAll(cas)
	if err != nil {
		return nil, toStatus(err)
	}
	if !ok {
		return nil, status.Errorf(codes.FailedPrecondition, "grpccas: %T cannot list its blocks", cas)
	}
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(ids))}
	for _, id := range ids {
		out.Values = append(out.Values, structpb.NewStringValue(id.String()))
	}
	return out, nil
}

func requestCID(in *wrapperspb.StringValue) (cid.Cid, error) {
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, status.Errorf(codes.InvalidArgument, "%s: %q", storage.ErrInvalidCID, in.GetValue())
	}
	return id, nil
}
