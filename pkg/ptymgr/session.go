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
	"slices"
	"sync"
	"time"

	"github.com/patrickjquinn/project-warp/pkg/api"
)

type session struct {
	id        api.SessionID
	shell     string
	args      []string
	cwd       string
	startedAt time.Time

	proc Process
	pty  PTY

	// writeMu serializes writers of the input endpoint.
	writeMu sync.Mutex

	// mu guards the fields below. It is never held while acquiring the
	// table lock.
	mu       sync.Mutex
	state    api.SessionState
	geometry api.Geometry
	exitCode *int
	killed   bool

	exited   chan struct{} // closed by the waiter once the process is reaped
	pumpDone chan struct{} // closed when the pump has released the read endpoint
}

func newSession(id api.SessionID, req SpawnRequest, proc Process, p PTY) *session {
	return &session{
		id:        id,
		shell:     req.Path,
		args:      slices.Clone(req.Args),
		cwd:       req.Dir,
		startedAt: time.Now(),
		proc:      proc,
		pty:       p,
		state:     api.Spawning,
		geometry:  req.Geometry,
		exited:    make(chan struct{}),
		pumpDone:  make(chan struct{}),
	}
}

func (s *session) State() api.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setRunning moves a freshly spawned session to Running. A shell that
// already exited keeps its Exited state.
func (s *session) setRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == api.Spawning {
		s.state = api.Running
	}
}

// markExited records the exit code. Killed sessions stay Killed.
func (s *session) markExited(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitCode = &code
	if s.state == api.Spawning || s.state == api.Running {
		s.state = api.Exited
	}
}

// markKilled reports whether the process was still running.
func (s *session) markKilled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasLive := s.state == api.Spawning || s.state == api.Running
	if wasLive {
		s.killed = true
	}
	if s.state != api.Removed {
		s.state = api.Killed
	}
	return wasLive
}

func (s *session) markRemoved() {
	s.mu.Lock()
	s.state = api.Removed
	s.mu.Unlock()
}

func (s *session) resize(g api.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pty.Resize(g); err != nil {
		return err
	}
	s.geometry = g
	return nil
}

// ended reports the exit code and whether the session was killed.
func (s *session) ended() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := -1
	if s.exitCode != nil {
		code = *s.exitCode
	}
	return code, s.killed
}

func (s *session) info() api.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := api.SessionInfo{
		ID:        s.id,
		Shell:     s.shell,
		Args:      slices.Clone(s.args),
		Cwd:       s.cwd,
		Geometry:  s.geometry,
		State:     s.state,
		StartedAt: s.startedAt,
	}
	if s.exitCode != nil {
		code := *s.exitCode
		info.ExitCode = &code
	}
	return info
}
