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
	"context"

	"github.com/patrickjquinn/project-warp/pkg/api"
)

// Sink receives session events. Pumps call Deliver from their own
// goroutines, so implementations must be safe for concurrent use and should
// not block for long: a slow sink stalls the session's output.
type Sink interface {
	Deliver(ctx context.Context, ev api.Event) error
}

// Forgetter is implemented by sinks that retain per-session state. Forget
// is called once a session has left the manager's table and its pump has
// stopped.
type Forgetter interface {
	Forget(id api.SessionID)
}

type SinkFunc func(ctx context.Context, ev api.Event) error

func (f SinkFunc) Deliver(ctx context.Context, ev api.Event) error { return f(ctx, ev) }

// ChannelSink forwards events to a channel, blocking until the event is
// accepted or ctx is done.
type ChannelSink chan api.Event

func (c ChannelSink) Deliver(ctx context.Context, ev api.Event) error {
	select {
	case c <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type discardSink struct{}

func (discardSink) Deliver(context.Context, api.Event) error { return nil }

// Observer is notified of session activity; the monitoring package exports
// these as metrics.
type Observer interface {
	SessionStarted()
	SessionEnded(killed bool)
	SessionRemoved()
	SpawnFailed()
	BytesIn(n int)
	BytesOut(n int)
	DecodeError()
}

type noopObserver struct{}

func (noopObserver) SessionStarted()   {}
func (noopObserver) SessionEnded(bool) {}
func (noopObserver) SessionRemoved()   {}
func (noopObserver) SpawnFailed()      {}
func (noopObserver) BytesIn(int)       {}
func (noopObserver) BytesOut(int)      {}
func (noopObserver) DecodeError()      {}

// ProfileLookup resolves named session presets.
type ProfileLookup interface {
	Lookup(name string) (api.SessionProfileSpec, error)
}
