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
	"bytes"
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/patrickjquinn/project-warp/internal/logging"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := ReadDaemonMetadata(ctx, dir)
	require.ErrorIs(t, err, errdefs.ErrDaemonNotRunning)

	md := api.DaemonMetadata{Pid: os.Getpid(), Socket: dir + "/warpd.sock", StartedAt: time.Now().UTC()}
	require.NoError(t, WriteMetadata(ctx, md, dir))

	got, err := ReadDaemonMetadata(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, md.Socket, got.Socket)
	assert.Equal(t, md.Pid, got.Pid)

	require.NoError(t, RemoveMetadata(dir))
	require.NoError(t, RemoveMetadata(dir))
}

func TestReadDaemonMetadata_Stale(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteMetadata(context.Background(), api.DaemonMetadata{Pid: -1}, dir))
	_, err := ReadDaemonMetadata(context.Background(), dir)
	require.ErrorIs(t, err, errdefs.ErrDaemonNotRunning)
}

func TestWrapConn(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	assert.Equal(t, a, WrapConn(a, logging.NewNoopLogger(), "in", "out"))

	var sink bytes.Buffer
	logger, _ := logging.NewLogger(&sink, "debug")
	wrapped := WrapConn(a, logger, "client->server", "server->client")
	go func() { _, _ = b.Write([]byte("ping")) }()
	buf := make([]byte, 4)
	_, err := wrapped.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, sink.String(), `"client->server"`)
}
