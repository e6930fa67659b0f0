package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/delfinacorr/hello-tiburona/internal/greeter"
	"github.com/delfinacorr/hello-tiburona/internal/identity"
)

// DialTimeout bounds connecting to the daemon socket.
const DialTimeout = 500 * time.Millisecond

// Client implements greeter.Service over a Unix socket, one connection per
// call.
type Client struct {
	socketPath string
}

var _ greeter.Service = (*Client)(nil)

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// RemoteError is a daemon-side failure that is not a greeter.Error.
type RemoteError struct{ Msg string }

func (e *RemoteError) Error() string { return e.Msg }

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, Request{Op: OpPing})
	return err
}

func (c *Client) Initialize(ctx context.Context, admin identity.Identity) error {
	_, err := c.call(ctx, Request{Op: OpInitialize, Caller: admin})
	return err
}

func (c *Client) SetLimit(ctx context.Context, caller identity.Identity, limit uint32) error {
	_, err := c.call(ctx, Request{Op: OpSetLimit, Caller: caller, Limit: limit})
	return err
}

func (c *Client) Hello(ctx context.Context, caller identity.Identity, name string) (string, error) {
	resp, err := c.call(ctx, Request{Op: OpHello, Caller: caller, Name: name})
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (c *Client) Counter(ctx context.Context) (uint32, error) {
	resp, err := c.call(ctx, Request{Op: OpCounter})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) LastGreeting(ctx context.Context, id identity.Identity) (string, bool, error) {
	resp, err := c.call(ctx, Request{Op: OpLastGreeting, Identity: id})
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

func (c *Client) ResetCounter(ctx context.Context, caller identity.Identity) error {
	_, err := c.call(ctx, Request{Op: OpResetCounter, Caller: caller})
	return err
}

func (c *Client) UserCounter(ctx context.Context, id identity.Identity) (uint32, error) {
	resp, err := c.call(ctx, Request{Op: OpUserCounter, Identity: id})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Admin panics, like greeter.Contract.Admin, when the daemon reports the
// contract uninitialized.
func (c *Client) Admin(ctx context.Context) (identity.Identity, error) {
	resp, err := c.call(ctx, Request{Op: OpAdmin})
	if err != nil {
		return "", err
	}
	return identity.Identity(resp.Value), nil
}

func (c *Client) TransferAdmin(ctx context.Context, caller, newAdmin identity.Identity) error {
	_, err := c.call(ctx, Request{Op: OpTransferAdmin, Caller: caller, NewAdmin: newAdmin})
	return err
}

func (c *Client) Restore(ctx context.Context, id identity.Identity) (bool, error) {
	resp, err := c.call(ctx, Request{Op: OpRestore, Identity: id})
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}

func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.withConn(ctx, func(conn net.Conn) error {
		if err := json.NewEncoder(conn).Encode(&req); err != nil {
			return fmt.Errorf("sending %s: %w", req.Op, err)
		}
		if err := json.NewDecoder(conn).Decode(&resp); err != nil {
			return fmt.Errorf("reading %s response: %w", req.Op, err)
		}
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	if resp.OK {
		return resp, nil
	}
	if resp.Fatal {
		panic(resp.Error)
	}
	if ce, ok := greeter.FromCode(resp.Code); ok {
		return Response{}, ce
	}
	return Response{}, &RemoteError{Msg: resp.Error}
}

func (c *Client) withConn(ctx context.Context, fn func(conn net.Conn) error) error {
	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return fn(conn)
}
