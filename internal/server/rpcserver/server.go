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

// Package rpcserver serves the daemon's JSON-RPC control socket.
package rpcserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"

	"github.com/patrickjquinn/project-warp/internal/shared"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

// OpenSocket listens on a unix socket at path, removing a stale one first.
func OpenSocket(ctx context.Context, logger *slog.Logger, path string) (net.Listener, error) {
	logger.DebugContext(ctx, "OpenSocket: preparing to listen", "socket", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", errdefs.ErrOpenSocketCtrl, err)
	}
	if _, err := os.Stat(path); err == nil {
		logger.WarnContext(ctx, "OpenSocket: removing stale socket", "socket", path)
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, fmt.Errorf("%w: cannot remove stale socket: %w", errdefs.ErrOpenSocketCtrl, rmErr)
		}
	}

	lnCfg := net.ListenConfig{}
	ln, err := lnCfg.Listen(ctx, "unix", path)
	if err != nil {
		logger.ErrorContext(ctx, "OpenSocket: cannot listen", "socket", path, "error", err)
		return nil, fmt.Errorf("%w: %w", errdefs.ErrOpenSocketCtrl, err)
	}
	if errC := os.Chmod(path, 0o600); errC != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("%w: %w", errdefs.ErrOpenSocketCtrl, errC)
	}

	logger.InfoContext(ctx, "OpenSocket: listening on socket", "socket", path)
	return ln, nil
}

// Serve registers sc and accepts connections on ln until ctx is done or
// ln fails. readyCh receives nil once accepting, or the registration
// error; doneCh receives why the loop stopped. Both are closed by Serve.
func Serve(
	ctx context.Context,
	logger *slog.Logger,
	ln net.Listener,
	sc *WarpControllerRPC,
	readyCh chan<- error,
	doneCh chan<- error,
) {
	defer func() {
		_ = ln.Close()
	}()

	// stop accepting when ctx is canceled.
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	srv := rpc.NewServer()
	if err := srv.RegisterName(api.WarpService, sc); err != nil {
		readyCh <- fmt.Errorf("%w: %w", errdefs.ErrStartRPCServer, err)
		close(readyCh)
		select {
		case doneCh <- err:
		default:
		}
		close(doneCh)
		return
	}
	readyCh <- nil
	close(readyCh)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				select {
				case doneCh <- errdefs.ErrRPCServerExited:
				default:
				}
				close(doneCh)
				return
			}
			logger.ErrorContext(ctx, "accept failed", "error", err)
			select {
			case doneCh <- err:
			default:
			}
			close(doneCh)
			return
		}
		wrapped := shared.WrapConn(conn, logger, "client->server", "server->client")
		go srv.ServeCodec(jsonrpc.NewServerCodec(wrapped))
	}
}
