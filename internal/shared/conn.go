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

package shared

import (
	"context"
	"log/slog"
	"net"
)

// LoggingConn traces the bytes crossing a control connection at debug level.
type LoggingConn struct {
	net.Conn
	Logger      *slog.Logger
	PrefixRead  string
	PrefixWrite string
}

func (c LoggingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.Logger.Debug(c.PrefixRead, "bytes", n, "data", string(p[:n]))
	}
	return n, err
}

func (c LoggingConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if n > 0 {
		c.Logger.Debug(c.PrefixWrite, "bytes", n, "data", string(p[:n]))
	}
	return n, err
}

// WrapConn returns conn unchanged unless logger has debug enabled.
func WrapConn(conn net.Conn, logger *slog.Logger, prefixRead, prefixWrite string) net.Conn {
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return conn
	}
	return LoggingConn{Conn: conn, Logger: logger, PrefixRead: prefixRead, PrefixWrite: prefixWrite}
}
