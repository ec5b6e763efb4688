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

package ptymgr

import (
	"log/slog"
	"time"

	"github.com/patrickjquinn/project-warp/pkg/api"
)

const (
	defaultKillGrace    = 2 * time.Second
	defaultRetention    = 5 * time.Second
	defaultDrainTimeout = 2 * time.Second
)

type config struct {
	logger       *slog.Logger
	spawner      Spawner
	resolver     *ShellResolver
	sink         Sink
	observer     Observer
	profiles     ProfileLookup
	geometry     api.Geometry
	shellArgs    []string
	killGrace    time.Duration
	retention    time.Duration
	drainTimeout time.Duration
}

type Option func(*config)

func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

func WithSpawner(s Spawner) Option { return func(c *config) { c.spawner = s } }

func WithShellResolver(r *ShellResolver) Option { return func(c *config) { c.resolver = r } }

// WithSink sets where session events are delivered. Without it events are
// dropped.
func WithSink(s Sink) Option { return func(c *config) { c.sink = s } }

func WithObserver(o Observer) Option { return func(c *config) { c.observer = o } }

func WithProfiles(p ProfileLookup) Option { return func(c *config) { c.profiles = p } }

// WithDefaultGeometry sets the size used when a request carries none.
func WithDefaultGeometry(g api.Geometry) Option {
	return func(c *config) {
		if g.Valid() {
			c.geometry = g
		}
	}
}

// WithShellArgs sets the arguments passed to the default shell.
func WithShellArgs(args ...string) Option { return func(c *config) { c.shellArgs = args } }

// WithKillGrace sets how long Kill waits after asking the process group to
// exit before killing it.
func WithKillGrace(d time.Duration) Option { return func(c *config) { c.killGrace = d } }

// WithRetention sets how long a session that exited on its own stays
// visible as Exited. Zero removes it right after its ended event.
func WithRetention(d time.Duration) Option { return func(c *config) { c.retention = d } }

// WithDrainTimeout bounds how long output is drained after the shell exits
// while other processes still hold the terminal open.
func WithDrainTimeout(d time.Duration) Option { return func(c *config) { c.drainTimeout = d } }
