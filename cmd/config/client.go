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

package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/internal/daemon"
	"github.com/patrickjquinn/project-warp/internal/logging"
	"github.com/patrickjquinn/project-warp/internal/shared"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/patrickjquinn/project-warp/pkg/rpcclient/warp"
)

// SocketPath resolves the control socket: WARP_SOCKET, then the socket
// recorded in the daemon metadata, then the default under the run path.
func SocketPath(ctx context.Context) string {
	if s := CLIENT_SOCKET.ValueOrDefault(); s != "" {
		return s
	}
	runPath := RUN_PATH.ValueOrDefault()
	if md, err := shared.ReadDaemonMetadata(ctx, runPath); err == nil && md.Socket != "" {
		return md.Socket
	}
	return filepath.Join(runPath, daemon.SocketName)
}

// HTTPEndpoint resolves the daemon's HTTP address: WARP_HTTP, then the
// address recorded in the daemon metadata.
func HTTPEndpoint(ctx context.Context) (string, error) {
	if s := CLIENT_HTTP.ValueOrDefault(); s != "" {
		return s, nil
	}
	md, err := shared.ReadDaemonMetadata(ctx, RUN_PATH.ValueOrDefault())
	if err != nil {
		return "", err
	}
	if md.HTTPListen == "" {
		return "", errdefs.ErrNoHTTPEndpoint
	}
	return md.HTTPListen, nil
}

// ClientFromContext returns the client stored under types.CtxClient, or a
// new one dialing SocketPath.
func ClientFromContext(ctx context.Context) warp.Client {
	if c, ok := ctx.Value(types.CtxClient).(warp.Client); ok && c != nil {
		return c
	}
	logger, _ := ctx.Value(types.CtxLogger).(*slog.Logger)
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return warp.NewUnix(SocketPath(ctx), logger)
}
