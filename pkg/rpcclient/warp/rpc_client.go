// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package warp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"github.com/patrickjquinn/project-warp/internal/shared"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type Dialer func(ctx context.Context) (net.Conn, error)

type client struct {
	dial   Dialer
	logger *slog.Logger
	delays []time.Duration
}

type (
	Option   func(*unixOpts)
	unixOpts struct {
		DialTimeout time.Duration
		Retries     []time.Duration
	}
)

func WithDialTimeout(d time.Duration) Option {
	return func(o *unixOpts) { o.DialTimeout = d }
}

// WithRetryDelays sets the pauses before each redial; the first attempt
// always runs immediately.
func WithRetryDelays(d ...time.Duration) Option {
	return func(o *unixOpts) { o.Retries = d }
}

// NewUnix returns a ctx-aware client that dials a Unix socket per call.
func NewUnix(sockPath string, logger *slog.Logger, opts ...Option) Client {
	//nolint:mnd // default timeout
	cfg := unixOpts{
		DialTimeout: 5 * time.Second,
		Retries:     []time.Duration{200 * time.Millisecond, 400 * time.Millisecond},
	}
	for _, o := range opts {
		o(&cfg)
	}
	dialer := func(ctx context.Context) (net.Conn, error) {
		d := net.Dialer{Timeout: cfg.DialTimeout}
		return d.DialContext(ctx, "unix", sockPath)
	}
	return NewWithDialer(dialer, logger, cfg.Retries...)
}

func NewWithDialer(dial Dialer, logger *slog.Logger, retries ...time.Duration) Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &client{dial: dial, logger: logger, delays: append([]time.Duration{0}, retries...)}
}

// call dials (retrying only failed dials, since calls are not idempotent)
// and runs one JSON-RPC request. Server errors come back as the matching
// errdefs sentinel when there is one.
func (c *client) call(ctx context.Context, method string, in, out any) error {
	var conn net.Conn
	var lastErr error
	for attempt, d := range c.delays {
		if d > 0 {
			c.logger.DebugContext(ctx, "delaying before retry", "attempt", attempt, "delay", d)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		}
		var err error
		conn, err = c.dial(ctx)
		if err == nil {
			break
		}
		c.logger.WarnContext(ctx, "dial failed", "attempt", attempt, "error", err)
		lastErr = err
	}
	if conn == nil {
		return errors.Join(errdefs.ErrDaemonNotRunning, lastErr)
	}

	wrapped := shared.WrapConn(conn, c.logger, "server->client", "client->server")
	rpcc := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(wrapped))
	defer rpcc.Close()

	c.logger.DebugContext(ctx, "starting RPC call", "method", method)
	errCh := make(chan error, 1)
	go func() {
		errCh <- rpcc.Call(method, in, out)
	}()

	select {
	case <-ctx.Done():
		c.logger.WarnContext(ctx, "context done during RPC call", "method", method, "error", ctx.Err())
		_ = conn.SetDeadline(time.Now().Add(10 * time.Millisecond))
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			c.logger.DebugContext(ctx, "RPC call failed", "method", method, "error", err)
			var se rpc.ServerError
			if errors.As(err, &se) {
				return errdefs.FromMessage(err)
			}
			return err
		}
		return nil
	}
}

func (c *client) Close() error { return nil } // stateless client

func (c *client) Ping(ctx context.Context, ping *api.PingMessage, pong *api.PingMessage) error {
	return c.call(ctx, api.WarpMethodPing, ping, pong)
}

func (c *client) Create(ctx context.Context, req *api.CreateRequest) (api.SessionID, error) {
	var reply api.CreateReply
	if err := c.call(ctx, api.WarpMethodCreate, req, &reply); err != nil {
		return 0, err
	}
	return reply.ID, nil
}

func (c *client) Write(ctx context.Context, id api.SessionID, data []byte) error {
	return c.call(ctx, api.WarpMethodWrite, &api.WriteArgs{ID: id, Data: data}, &api.Empty{})
}

func (c *client) Resize(ctx context.Context, id api.SessionID, g api.Geometry) error {
	return c.call(ctx, api.WarpMethodResize, &api.ResizeArgs{ID: id, Geometry: g}, &api.Empty{})
}

func (c *client) Kill(ctx context.Context, id api.SessionID) error {
	return c.call(ctx, api.WarpMethodKill, &api.SessionIDArgs{ID: id}, &api.Empty{})
}

func (c *client) Get(ctx context.Context, id api.SessionID) (*api.SessionInfo, error) {
	var info api.SessionInfo
	if err := c.call(ctx, api.WarpMethodGet, &api.SessionIDArgs{ID: id}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *client) List(ctx context.Context) ([]api.SessionInfo, error) {
	var reply api.SessionListReply
	if err := c.call(ctx, api.WarpMethodList, &api.Empty{}, &reply); err != nil {
		return nil, err
	}
	return reply.Sessions, nil
}

func (c *client) Profiles(ctx context.Context) ([]api.SessionProfileDoc, error) {
	var reply api.ProfilesReply
	if err := c.call(ctx, api.WarpMethodProfiles, &api.Empty{}, &reply); err != nil {
		return nil, err
	}
	return reply.Profiles, nil
}

func (c *client) ClipboardCopy(ctx context.Context, args *api.ClipboardCopyArgs) error {
	return c.call(ctx, api.WarpMethodClipboardCopy, args, &api.Empty{})
}

func (c *client) ClipboardPaste(ctx context.Context, args *api.ClipboardPasteArgs) (*api.ClipboardPasteReply, error) {
	var reply api.ClipboardPasteReply
	if err := c.call(ctx, api.WarpMethodClipboardPaste, args, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
