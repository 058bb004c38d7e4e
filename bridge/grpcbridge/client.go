package grpcbridge

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/dagcbor/bridge"
)

// Client calls a remote Codec service.
//
// Conversion failures come back as a failed bridge.Outcome; the error
// return is reserved for transport problems.
type Client struct {
	cc     *grpc.ClientConn
	client CodecClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

// Dial connects to target without transport security.
func Dial(target string, maxMsgBytes int) (*Client, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if maxMsgBytes > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMsgBytes),
			grpc.MaxCallSendMsgSize(maxMsgBytes),
		))
	}
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection. Close closes cc.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewCodecClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Encode converts JSON text to DAG-CBOR on the server.
func (c *Client) Encode(ctx context.Context, jsonText string) (bridge.Outcome[[]byte], error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	reply, err := c.client.Encode(ctx, wrapperspb.String(jsonText))
	if err != nil {
		return failed[[]byte](err)
	}
	return bridge.Ok(reply.GetValue()), nil
}

// Decode converts DAG-CBOR to JSON text on the server.
func (c *Client) Decode(ctx context.Context, data []byte) (bridge.Outcome[string], error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	reply, err := c.client.Decode(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return failed[string](err)
	}
	return bridge.Ok(reply.GetValue()), nil
}

// Inspect renders DAG-CBOR in diagnostic notation on the server.
func (c *Client) Inspect(ctx context.Context, data []byte) (bridge.Outcome[string], error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	reply, err := c.client.Inspect(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return failed[string](err)
	}
	return bridge.Ok(reply.GetValue()), nil
}

func failed[T any](err error) (bridge.Outcome[T], error) {
	if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
		return bridge.Fail[T](st.Message()), nil
	}
	return bridge.Outcome[T]{}, err
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
