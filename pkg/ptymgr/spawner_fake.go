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
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type SpawnerTest struct {
	SpawnFunc func(ctx context.Context, req SpawnRequest) (Process, PTY, error)

	mu       sync.Mutex
	requests []SpawnRequest
}

func (f *SpawnerTest) Spawn(ctx context.Context, req SpawnRequest) (Process, PTY, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.SpawnFunc != nil {
		return f.SpawnFunc(ctx, req)
	}
	return nil, nil, errdefs.ErrFuncNotSet
}

func (f *SpawnerTest) Requests() []SpawnRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SpawnRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// FakeProcess is an in-memory shell. It exits when told to, or when
// terminated unless IgnoreTerminate is set.
type FakeProcess struct {
	IgnoreTerminate bool

	pid  int
	term *FakePTY

	once   sync.Once
	exitCh chan struct{}
	code   int
}

// NewFakePair returns a process and its terminal. Output written with
// FakePTY.Emit is what the manager reads from the master.
func NewFakePair(pid int) (*FakeProcess, *FakePTY) {
	outR, outW := io.Pipe()
	term := &FakePTY{outR: outR, outW: outW}
	return &FakeProcess{pid: pid, term: term, exitCh: make(chan struct{})}, term
}

func (p *FakeProcess) Pid() int { return p.pid }

// Exit ends the process with code and hangs up its terminal.
func (p *FakeProcess) Exit(code int) {
	p.once.Do(func() {
		p.code = code
		close(p.exitCh)
		_ = p.term.outW.Close()
	})
}

func (p *FakeProcess) Terminate() error {
	if !p.IgnoreTerminate {
		//nolint:mnd // SIGTERM exit status
		p.Exit(143)
	}
	return nil
}

func (p *FakeProcess) Kill() error {
	//nolint:mnd // SIGKILL exit status
	p.Exit(137)
	return nil
}

func (p *FakeProcess) Wait() (int, error) {
	<-p.exitCh
	return p.code, nil
}

func (p *FakeProcess) Exited() <-chan struct{} { return p.exitCh }

type FakePTY struct {
	outR *io.PipeReader
	outW *io.PipeWriter

	mu       sync.Mutex
	input    bytes.Buffer
	geometry api.Geometry
	closed   bool

	closeOnce sync.Once
}

func (t *FakePTY) Read(p []byte) (int, error) { return t.outR.Read(p) }

func (t *FakePTY) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, os.ErrClosed
	}
	return t.input.Write(p)
}

func (t *FakePTY) Resize(g api.Geometry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return os.ErrClosed
	}
	t.geometry = g
	return nil
}

func (t *FakePTY) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		_ = t.outR.Close()
	})
	return nil
}

// Emit plays p as shell output. It blocks until the pump has read it.
func (t *FakePTY) Emit(p []byte) error {
	_, err := t.outW.Write(p)
	return err
}

// Input returns everything written to the terminal so far.
func (t *FakePTY) Input() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input.String()
}

func (t *FakePTY) Geometry() api.Geometry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.geometry
}

// FakeFleet is a Spawner handing out fake pairs with increasing pids. It
// keeps every pair so tests outside this package can drive them.
type FakeFleet struct {
	*SpawnerTest

	mu    sync.Mutex
	next  int
	procs map[api.SessionID]*FakeProcess
	ptys  map[api.SessionID]*FakePTY
}

func NewFakeFleet(firstPid int) *FakeFleet {
	f := &FakeFleet{
		next:  firstPid,
		procs: make(map[api.SessionID]*FakeProcess),
		ptys:  make(map[api.SessionID]*FakePTY),
	}
	f.SpawnerTest = &SpawnerTest{
		SpawnFunc: func(_ context.Context, _ SpawnRequest) (Process, PTY, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			pid := f.next
			f.next++
			proc, term := NewFakePair(pid)
			f.procs[api.SessionID(pid)] = proc
			f.ptys[api.SessionID(pid)] = term
			return proc, term, nil
		},
	}
	return f
}

func (f *FakeFleet) Process(id api.SessionID) *FakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.procs[id]
}

func (f *FakeFleet) PTY(id api.SessionID) *FakePTY {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ptys[id]
}
