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

package daemon

import (
	"path/filepath"
	"time"

	"github.com/patrickjquinn/project-warp/internal/server/httpserver"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/ptymgr"
	"github.com/spf13/afero"
)

const SocketName = "warpd.sock"

type Config struct {
	RunPath string
	// Socket defaults to <RunPath>/warpd.sock.
	Socket string
	// HTTPListen is a TCP address; empty disables the HTTP server.
	HTTPListen string
	HTTP       httpserver.Config

	ProfilesFile  string
	WatchProfiles bool

	ShellCandidates []string
	ShellArgs       []string
	DefaultGeometry api.Geometry
	KillGrace       time.Duration
	Retention       time.Duration
	DrainTimeout    time.Duration

	// ReplayBytes is the per-session replay backlog; zero keeps the
	// default and a negative value disables replay.
	ReplayBytes int
	QueueSize   int

	SystemClipboard bool
	Version         string

	// Fs and Spawner are swapped out by tests.
	Fs      afero.Fs
	Spawner ptymgr.Spawner
}

func (c Config) socketPath() string {
	if c.Socket != "" {
		return c.Socket
	}
	return filepath.Join(c.RunPath, SocketName)
}
