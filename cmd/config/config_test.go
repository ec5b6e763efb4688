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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/internal/shared"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/patrickjquinn/project-warp/pkg/rpcclient/warp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVar_Precedence(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	v := DefineKV("WARP_TEST_PRECEDENCE", "test.precedence", "fallback")
	assert.Equal(t, "fallback", v.ValueOrDefault())

	t.Setenv(v.Key, "from-env")
	assert.Equal(t, "from-env", v.ValueOrDefault())

	viper.Set(v.ViperKey, "from-viper")
	assert.Equal(t, "from-viper", v.ValueOrDefault())

	assert.Equal(t, "WARP_TEST_PRECEDENCE=x", KV(v, "x"))
}

func TestBindFlag(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("socket", "", "")
	require.NoError(t, BindFlag(fs, "socket", CLIENT_SOCKET))
	require.NoError(t, fs.Parse([]string{"--socket", "/tmp/x.sock"}))
	assert.Equal(t, "/tmp/x.sock", CLIENT_SOCKET.ValueOrDefault())

	require.Error(t, BindFlag(fs, "missing", CLIENT_SOCKET))
	require.Error(t, BindFlag(fs, "socket", Define("NO_VIPER_KEY")))
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("warpd:\n  logLevel: debug\n"), 0o600))
	t.Setenv(CONFIG_FILE.Key, path)

	require.NoError(t, LoadConfig(DaemonVars()))
	assert.Equal(t, "debug", LOG_LEVEL.ValueOrDefault())
	assert.Equal(t, DefaultRunPath(), RUN_PATH.ValueOrDefault())
	assert.Equal(t, "127.0.0.1:7780", HTTP_LISTEN.ValueOrDefault())
	assert.Equal(t, 2*time.Second, viper.GetDuration(KILL_GRACE.ViperKey))
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("warpd: [unterminated\n"), 0o600))
	t.Setenv(CONFIG_FILE.Key, path)

	err := LoadConfig(ClientVars())
	if !errors.Is(err, errdefs.ErrConfig) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrConfig, err)
	}
}

func TestSocketPathAndHTTPEndpoint(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	runPath := t.TempDir()
	t.Setenv(RUN_PATH.Key, runPath)
	t.Setenv(CLIENT_SOCKET.Key, "")
	t.Setenv(CLIENT_HTTP.Key, "")
	require.NoError(t, RUN_PATH.BindEnv())
	ctx := context.Background()

	assert.Equal(t, filepath.Join(runPath, "warpd.sock"), SocketPath(ctx))
	_, err := HTTPEndpoint(ctx)
	if !errors.Is(err, errdefs.ErrDaemonNotRunning) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrDaemonNotRunning, err)
	}

	md := api.DaemonMetadata{Pid: os.Getpid(), Socket: "/run/custom.sock", StartedAt: time.Now()}
	require.NoError(t, shared.WriteMetadata(ctx, md, runPath))
	assert.Equal(t, "/run/custom.sock", SocketPath(ctx))
	_, err = HTTPEndpoint(ctx)
	if !errors.Is(err, errdefs.ErrNoHTTPEndpoint) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrNoHTTPEndpoint, err)
	}

	md.HTTPListen = "127.0.0.1:7781"
	require.NoError(t, shared.WriteMetadata(ctx, md, runPath))
	addr, err := HTTPEndpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7781", addr)

	t.Setenv(CLIENT_SOCKET.Key, "/tmp/override.sock")
	assert.Equal(t, "/tmp/override.sock", SocketPath(ctx))
}

func TestClientFromContext(t *testing.T) {
	fake := &warp.ClientTest{}
	ctx := context.WithValue(context.Background(), types.CtxClient, warp.Client(fake))
	assert.Same(t, fake, ClientFromContext(ctx))

	assert.NotNil(t, ClientFromContext(context.Background()))
}

func TestAutoCompleteListProfileNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[profiles]]
apiVersion = "warp/v1"
kind = "SessionProfile"
[profiles.metadata]
name = "ops"
`), 0o600))

	names, err := AutoCompleteListProfileNames(context.Background(), nil, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ops"}, names)

	_, err = AutoCompleteListProfileNames(context.Background(), nil, filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
}

func TestAutoCompleteListSessionIDs(t *testing.T) {
	fake := &warp.ClientTest{
		ListFunc: func(context.Context) ([]api.SessionInfo, error) {
			return []api.SessionInfo{{ID: 11, State: api.Running}, {ID: 12, State: api.Exited}}, nil
		},
	}
	ctx := context.WithValue(context.Background(), types.CtxClient, warp.Client(fake))

	ids, err := AutoCompleteListSessionIDs(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"11"}, ids)

	ids, err = AutoCompleteListSessionIDs(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"11", "12"}, ids)
}
