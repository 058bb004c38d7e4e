package grpccas

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/dagcbor/storage"
)

// Client is a storage.CAS backed by a remote block store service, usually
// xdao-dagcbord. It re-verifies every block it sends or receives.
type Client struct {
	conn *grpc.ClientConn
	rpc  CASClient

	// Timeout bounds each call when non-zero.
	Timeout time.Duration
}

var (
	_ storage.CAS    = (*Client)(nil)
	_ storage.Lister = (*Client)(nil)
)

type DialOptions struct {
	// Timeout bounds each call made by the returned client.
	Timeout time.Duration
	// MaxMsgBytes raises the send and receive limits when non-zero.
	MaxMsgBytes int
}

// Dial creates a client for target over an insecure connection. The
// connection is established lazily on the first call.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
			grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
		))
	}
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpccas: %s: %w", target, err)
	}
	c := NewClient(conn)
	c.Timeout = opts.Timeout
	return c, nil
}

// NewClient wraps conn. Close closes conn.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn, rpc: NewCASClient(conn)}
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) call() (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(context.Background(), c.Timeout)
	}
	return context.WithCancel(context.Background())
}

func (c *Client) Put(block []byte) (cid.Cid, error) {
	if err := storage.CheckBlock(block); err != nil {
		return cid.Undef, err
	}
	ctx, cancel := c.call()
	defer cancel()
	reply, err := c.rpc.Put(ctx, wrapperspb.Bytes(block))
	if err != nil {
		return cid.Undef, fromStatus(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: server replied %q", storage.ErrInvalidCID, reply.GetValue())
	}
	// The server must report the CID these bytes hash to.
	if err := storage.VerifyBlock(id, block); err != nil {
		return cid.Undef, err
	}
	return id, nil
}

func (c *Client) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.call()
	defer cancel()
	reply, err := c.rpc.Get(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, fromStatus(err)
	}
	if err := storage.VerifyBlock(id, reply.GetValue()); err != nil {
		return nil, err
	}
	return reply.GetValue(), nil
}

// Has reports false on any transport error.
func (c *Client) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	ctx, cancel := c.call()
	defer cancel()
	reply, err := c.rpc.Has(ctx, wrapperspb.String(id.String()))
	return err == nil && reply.GetValue()
}

func (c *Client) List() ([]cid.Cid, error) {
	ctx, cancel := c.call()
	defer cancel()
	reply, err := c.rpc.List(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fromStatus(err)
	}
	ids := make([]cid.Cid, 0, len(reply.GetValues()))
	for _, v := range reply.GetValues() {
		id, err := cid.Decode(v.GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("%w: server listed %q", storage.ErrInvalidCID, v.GetStringValue())
		}
		ids = append(ids, id)
	}
	return ids, nil
}
