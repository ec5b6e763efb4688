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
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type recorder struct {
	mu     sync.Mutex
	events []api.Event
}

func (r *recorder) Deliver(_ context.Context, ev api.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recorder) of(id api.SessionID, typ api.EventType) []api.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []api.Event
	for _, ev := range r.events {
		if ev.SessionID == id && ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) output(id api.SessionID) string {
	var sb strings.Builder
	for _, ev := range r.of(id, api.EvOutput) {
		sb.WriteString(ev.Data)
	}
	return sb.String()
}

func (r *recorder) seqs(id api.SessionID) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint64
	for _, ev := range r.events {
		if ev.SessionID == id {
			out = append(out, ev.Seq)
		}
	}
	return out
}

type countingObserver struct {
	noopObserver
	started, ended, removed, spawnFailed, decodeErrors atomic.Int32
}

func (o *countingObserver) SessionStarted()   { o.started.Add(1) }
func (o *countingObserver) SessionEnded(bool) { o.ended.Add(1) }
func (o *countingObserver) SessionRemoved()   { o.removed.Add(1) }
func (o *countingObserver) SpawnFailed()      { o.spawnFailed.Add(1) }
func (o *countingObserver) DecodeError()      { o.decodeErrors.Add(1) }

type fakeEnv struct {
	spawner *SpawnerTest
	next    atomic.Int64

	mu    sync.Mutex
	procs map[api.SessionID]*FakeProcess
	ptys  map[api.SessionID]*FakePTY

	ignoreTerminate bool
}

func newFakeEnv() *fakeEnv {
	e := &fakeEnv{
		procs: make(map[api.SessionID]*FakeProcess),
		ptys:  make(map[api.SessionID]*FakePTY),
	}
	e.next.Store(1000)
	e.spawner = &SpawnerTest{
		SpawnFunc: func(_ context.Context, _ SpawnRequest) (Process, PTY, error) {
			return e.add(int(e.next.Add(1)))
		},
	}
	return e
}

func (e *fakeEnv) add(pid int) (Process, PTY, error) {
	proc, term := NewFakePair(pid)
	proc.IgnoreTerminate = e.ignoreTerminate
	e.mu.Lock()
	e.procs[api.SessionID(pid)] = proc
	e.ptys[api.SessionID(pid)] = term
	e.mu.Unlock()
	return proc, term, nil
}

func (e *fakeEnv) proc(id api.SessionID) *FakeProcess {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.procs[id]
}

func (e *fakeEnv) pty(id api.SessionID) *FakePTY {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ptys[id]
}

func newTestManager(t *testing.T, env *fakeEnv, sink Sink, opts ...Option) *Manager {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bin/zsh", []byte("#!"), 0o755))
	resolver := NewShellResolver(fs)
	resolver.goos = "linux"

	all := append([]Option{
		WithSpawner(env.spawner),
		WithShellResolver(resolver),
		WithSink(sink),
		WithKillGrace(100 * time.Millisecond),
		WithRetention(time.Hour),
	}, opts...)
	m := New(all...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = m.Close(ctx)
	})
	return m
}

func TestCreateSession_Defaults(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{})

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	reqs := env.spawner.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/bin/zsh", reqs[0].Path)
	assert.Equal(t, api.Geometry{Rows: 24, Cols: 80}, reqs[0].Geometry)
	assert.True(t, hasEnv(reqs[0].Env, "TERM"))

	info, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, api.Running, info.State)
	assert.Equal(t, "/bin/zsh", info.Shell)
	assert.Nil(t, info.ExitCode)
}

func TestCreateSession_ShellOverride(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{})

	_, err := m.CreateSession(context.Background(), api.CreateRequest{
		Shell:    "/usr/bin/fish",
		Args:     []string{"-l"},
		Geometry: api.Geometry{Rows: 50, Cols: 200},
	})
	require.NoError(t, err)

	req := env.spawner.Requests()[0]
	assert.Equal(t, "/usr/bin/fish", req.Path)
	assert.Equal(t, []string{"-l"}, req.Args)
	assert.Equal(t, api.Geometry{Rows: 50, Cols: 200}, req.Geometry)
}

func TestCreateSession_SpawnFailure(t *testing.T) {
	obs := &countingObserver{}
	env := newFakeEnv()
	env.spawner.SpawnFunc = func(context.Context, SpawnRequest) (Process, PTY, error) {
		return nil, nil, errors.New("fork/exec /bin/zsh: permission denied")
	}
	m := newTestManager(t, env, &recorder{}, WithObserver(obs))

	_, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.ErrorIs(t, err, errdefs.ErrSpawn)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, int32(1), obs.spawnFailed.Load())
}

func TestCreateSession_NoShell(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{}, WithShellResolver(NewShellResolver(afero.NewMemMapFs(), "/missing")))

	_, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.ErrorIs(t, err, errdefs.ErrSpawn)
	require.ErrorIs(t, err, errdefs.ErrNoShell)
	assert.Empty(t, env.spawner.Requests())
}

func TestCreateSession_InvalidGeometry(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{})

	_, err := m.CreateSession(context.Background(), api.CreateRequest{Geometry: api.Geometry{Rows: 10}})
	require.ErrorIs(t, err, errdefs.ErrInvalidGeometry)
}

func TestCreateSession_ConcurrentUniqueIDs(t *testing.T) {
	const n = 50
	rec := &recorder{}
	env := newFakeEnv()
	m := newTestManager(t, env, rec)

	ids := make(chan api.SessionID, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := m.CreateSession(context.Background(), api.CreateRequest{})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[api.SessionID]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, m.Len())

	var kg sync.WaitGroup
	for id := range seen {
		kg.Add(1)
		go func() {
			defer kg.Done()
			assert.NoError(t, m.Kill(context.Background(), id))
		}()
	}
	kg.Wait()

	assert.Equal(t, 0, m.Len())
	for id := range seen {
		assert.Len(t, rec.of(id, api.EvEnded), 1)
	}
}

func TestWrite_ForwardsInOrder(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{})

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	require.NoError(t, m.Write(id, []byte("b1")))
	require.NoError(t, m.Write(id, []byte("b2")))
	assert.Equal(t, "b1b2", env.pty(id).Input())
}

func TestWrite_NotFound(t *testing.T) {
	m := newTestManager(t, newFakeEnv(), &recorder{})
	require.ErrorIs(t, m.Write(4242, []byte("x")), errdefs.ErrNotFound)
	require.ErrorIs(t, m.Resize(4242, api.Geometry{Rows: 1, Cols: 1}), errdefs.ErrNotFound)
	require.ErrorIs(t, m.Kill(context.Background(), 4242), errdefs.ErrNotFound)
	_, err := m.Get(4242)
	require.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestOutput_OrderedWithSequence(t *testing.T) {
	rec := &recorder{}
	env := newFakeEnv()
	m := newTestManager(t, env, rec)

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	require.NoError(t, env.pty(id).Emit([]byte("hello ")))
	require.NoError(t, env.pty(id).Emit([]byte("world")))

	require.Eventually(t, func() bool { return rec.output(id) == "hello world" }, waitFor, 5*time.Millisecond)
	assert.Equal(t, []uint64{1, 2}, rec.seqs(id))
}

func TestOutput_DecodeErrorDoesNotStopPump(t *testing.T) {
	rec := &recorder{}
	obs := &countingObserver{}
	env := newFakeEnv()
	m := newTestManager(t, env, rec, WithObserver(obs))

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	require.NoError(t, env.pty(id).Emit([]byte{0xff, 0xfe, 0xfd}))
	require.NoError(t, env.pty(id).Emit([]byte("after")))

	require.Eventually(t, func() bool { return rec.output(id) == "after" }, waitFor, 5*time.Millisecond)
	bad := rec.of(id, api.EvDecodeError)
	require.Len(t, bad, 1)
	assert.Equal(t, []byte{0xff, 0xfe, 0xfd}, bad[0].Raw)
	assert.Equal(t, int32(1), obs.decodeErrors.Load())
}

func TestResize(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{})

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	g := api.Geometry{Rows: 40, Cols: 120}
	require.NoError(t, m.Resize(id, g))
	require.NoError(t, m.Resize(id, g))
	assert.Equal(t, g, env.pty(id).Geometry())

	info, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, g, info.Geometry)

	require.ErrorIs(t, m.Resize(id, api.Geometry{Rows: 0, Cols: 10}), errdefs.ErrInvalidGeometry)
}

func TestKill_ThenEverythingNotFound(t *testing.T) {
	rec := &recorder{}
	env := newFakeEnv()
	m := newTestManager(t, env, rec)

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	require.NoError(t, m.Kill(context.Background(), id))

	require.ErrorIs(t, m.Write(id, []byte("x")), errdefs.ErrNotFound)
	require.ErrorIs(t, m.Resize(id, api.Geometry{Rows: 1, Cols: 1}), errdefs.ErrNotFound)
	require.ErrorIs(t, m.Kill(context.Background(), id), errdefs.ErrNotFound)

	ended := rec.of(id, api.EvEnded)
	require.Len(t, ended, 1)
	assert.True(t, ended[0].Killed)
	assert.Equal(t, 143, ended[0].ExitCode)
}

func TestKill_EscalatesAfterGrace(t *testing.T) {
	rec := &recorder{}
	env := newFakeEnv()
	env.ignoreTerminate = true
	m := newTestManager(t, env, rec, WithKillGrace(50*time.Millisecond))

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, m.Kill(context.Background(), id))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	ended := rec.of(id, api.EvEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 137, ended[0].ExitCode)
}

func TestKill_ConcurrentWithWrites(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{})

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				errW := m.Write(id, []byte("x"))
				if errW != nil {
					assert.ErrorIs(t, errW, errdefs.ErrNotFound)
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Kill(context.Background(), id))
	close(stop)
	wg.Wait()
	assert.Equal(t, 0, m.Len())
}

func TestNaturalExit_RetainedAsExited(t *testing.T) {
	rec := &recorder{}
	env := newFakeEnv()
	m := newTestManager(t, env, rec)

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	env.proc(id).Exit(0)

	require.Eventually(t, func() bool { return len(rec.of(id, api.EvEnded)) == 1 }, waitFor, 5*time.Millisecond)
	ended := rec.of(id, api.EvEnded)[0]
	assert.False(t, ended.Killed)
	assert.Equal(t, 0, ended.ExitCode)

	info, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, api.Exited, info.State)
	require.NotNil(t, info.ExitCode)

	require.ErrorIs(t, m.Write(id, []byte("x")), errdefs.ErrSessionClosed)
	require.ErrorIs(t, m.Resize(id, api.Geometry{Rows: 2, Cols: 2}), errdefs.ErrSessionClosed)

	// still exactly one terminal event
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.of(id, api.EvEnded), 1)
}

func TestNaturalExit_RemovedAfterRetention(t *testing.T) {
	rec := &recorder{}
	obs := &countingObserver{}
	env := newFakeEnv()
	m := newTestManager(t, env, rec, WithRetention(0), WithObserver(obs))

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)
	env.proc(id).Exit(2)

	require.Eventually(t, func() bool { return m.Len() == 0 }, waitFor, 5*time.Millisecond)
	require.ErrorIs(t, m.Write(id, []byte("x")), errdefs.ErrNotFound)
	assert.Equal(t, int32(1), obs.removed.Load())
	assert.Equal(t, 2, rec.of(id, api.EvEnded)[0].ExitCode)
}

func TestCreateSession_ReplacesRetainedPid(t *testing.T) {
	env := newFakeEnv()
	env.spawner.SpawnFunc = func(context.Context, SpawnRequest) (Process, PTY, error) {
		return env.add(777)
	}
	rec := &recorder{}
	m := newTestManager(t, env, rec)

	id, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)
	first := env.proc(id)
	first.Exit(0)
	require.Eventually(t, func() bool {
		info, errG := m.Get(id)
		return errG == nil && info.State == api.Exited
	}, waitFor, 5*time.Millisecond)

	id2, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	info, err := m.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, api.Running, info.State)

	// a live session with the same pid is never replaced
	_, err = m.CreateSession(context.Background(), api.CreateRequest{})
	require.ErrorIs(t, err, errdefs.ErrSpawn)
	require.ErrorIs(t, err, errdefs.ErrSessionExists)
}

type staticProfiles map[string]api.SessionProfileSpec

func (p staticProfiles) Lookup(name string) (api.SessionProfileSpec, error) {
	spec, ok := p[name]
	if !ok {
		return api.SessionProfileSpec{}, errdefs.ErrProfileNotFound
	}
	return spec, nil
}

func TestCreateSession_Profile(t *testing.T) {
	env := newFakeEnv()
	profiles := staticProfiles{
		"dev": {Shell: "/bin/bash", Args: []string{"-l"}, Cwd: "/srv", Env: map[string]string{"A": "1", "B": "1"}, Rows: 30, Cols: 100},
	}
	m := newTestManager(t, env, &recorder{}, WithProfiles(profiles))

	_, err := m.CreateSession(context.Background(), api.CreateRequest{Profile: "dev", Env: map[string]string{"B": "2"}})
	require.NoError(t, err)

	req := env.spawner.Requests()[0]
	assert.Equal(t, "/bin/bash", req.Path)
	assert.Equal(t, []string{"-l"}, req.Args)
	assert.Equal(t, "/srv", req.Dir)
	assert.Equal(t, api.Geometry{Rows: 30, Cols: 100}, req.Geometry)
	assert.Contains(t, req.Env, "A=1")
	assert.Contains(t, req.Env, "B=2")

	_, err = m.CreateSession(context.Background(), api.CreateRequest{Profile: "missing"})
	require.ErrorIs(t, err, errdefs.ErrProfileNotFound)
}

func TestClose(t *testing.T) {
	rec := &recorder{}
	env := newFakeEnv()
	m := newTestManager(t, env, rec)

	var ids []api.SessionID
	for range 5 {
		id, err := m.CreateSession(context.Background(), api.CreateRequest{})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, m.Close(context.Background()))
	assert.Equal(t, 0, m.Len())
	for _, id := range ids {
		assert.Len(t, rec.of(id, api.EvEnded), 1)
	}

	_, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.ErrorIs(t, err, errdefs.ErrManagerClosed)
	require.NoError(t, m.Close(context.Background()))
}

func TestClose_WaitsForCreateInFlight(t *testing.T) {
	env := newFakeEnv()
	entered := make(chan struct{})
	gate := make(chan struct{})
	env.spawner.SpawnFunc = func(context.Context, SpawnRequest) (Process, PTY, error) {
		close(entered)
		<-gate
		return env.add(1001)
	}
	rec := &recorder{}
	m := newTestManager(t, env, rec)

	type result struct {
		id  api.SessionID
		err error
	}
	created := make(chan result, 1)
	go func() {
		id, err := m.CreateSession(context.Background(), api.CreateRequest{})
		created <- result{id: id, err: err}
	}()
	<-entered

	closed := make(chan error, 1)
	go func() { closed <- m.Close(context.Background()) }()

	select {
	case err := <-closed:
		t.Fatalf("expected Close to wait for the create in flight; got: '%v'", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(gate)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Close did not return")
	}
	res := <-created
	require.NoError(t, res.err)
	assert.Equal(t, api.SessionID(1001), res.id)

	assert.Equal(t, 0, m.Len())
	select {
	case <-env.proc(1001).Exited():
	default:
		t.Fatalf("process %d still running after Close", res.id)
	}
	assert.Len(t, rec.of(1001, api.EvEnded), 1)

	_, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.ErrorIs(t, err, errdefs.ErrManagerClosed)
}

type forgettingRecorder struct {
	recorder

	fmu    sync.Mutex
	forgot []api.SessionID
}

func (r *forgettingRecorder) Forget(id api.SessionID) {
	r.fmu.Lock()
	r.forgot = append(r.forgot, id)
	r.fmu.Unlock()
}

func (r *forgettingRecorder) forgotten(id api.SessionID) bool {
	r.fmu.Lock()
	defer r.fmu.Unlock()
	for _, f := range r.forgot {
		if f == id {
			return true
		}
	}
	return false
}

func TestForget_OnlyAfterSessionLeavesTable(t *testing.T) {
	env := newFakeEnv()
	rec := &forgettingRecorder{}
	m := newTestManager(t, env, rec, WithRetention(300*time.Millisecond))
	ctx := context.Background()

	exited, err := m.CreateSession(ctx, api.CreateRequest{})
	require.NoError(t, err)
	killed, err := m.CreateSession(ctx, api.CreateRequest{})
	require.NoError(t, err)

	env.proc(exited).Exit(0)
	require.Eventually(t, func() bool { return len(rec.of(exited, api.EvEnded)) == 1 }, waitFor, 5*time.Millisecond)
	assert.False(t, rec.forgotten(exited), "retained sessions keep their events")
	_, err = m.Get(exited)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.forgotten(exited) }, waitFor, 5*time.Millisecond)
	_, err = m.Get(exited)
	require.ErrorIs(t, err, errdefs.ErrNotFound)

	require.NoError(t, m.Kill(ctx, killed))
	assert.True(t, rec.forgotten(killed))
}

func TestList(t *testing.T) {
	env := newFakeEnv()
	m := newTestManager(t, env, &recorder{})

	a, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)
	b, err := m.CreateSession(context.Background(), api.CreateRequest{})
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0].ID)
	assert.Equal(t, b, list[1].ID)
}
