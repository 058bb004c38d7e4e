package grpccas

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/dagcbor/storage"
)

// statusCodes pairs each storage sentinel with the code it travels as.
// ErrNotDagCBOR and ErrInvalidCID share InvalidArgument and are told apart
// by the message prefix.
var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{storage.ErrNotFound, codes.NotFound},
	{storage.ErrNotDagCBOR, codes.InvalidArgument},
	{storage.ErrInvalidCID, codes.InvalidArgument},
	{storage.ErrCIDMismatch, codes.DataLoss},
	{storage.ErrImmutable, codes.AlreadyExists},
}

// toStatus converts a storage error into a gRPC status.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return status.Error(sc.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus converts a gRPC status back into a storage error. Detail after
// the sentinel's own message is kept.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if err == nil || !ok {
		return err
	}
	msg := st.Message()
	for _, sc := range statusCodes {
		if st.Code() != sc.code {
			continue
		}
		if detail, found := strings.CutPrefix(msg, sc.err.Error()); found {
			if detail == "" {
				return sc.err
			}
			return fmt.Errorf("%w%s", sc.err, detail)
		}
	}
	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", storage.ErrInvalidCID, msg)
	case codes.DataLoss:
		return storage.ErrCIDMismatch
	case codes.AlreadyExists:
		return storage.ErrImmutable
	}
	return err
}
