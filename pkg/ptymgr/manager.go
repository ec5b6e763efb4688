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
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickjquinn/project-warp/internal/table"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"golang.org/x/sync/errgroup"
)

type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	cfg    config

	sessions *table.Table[api.SessionID, *session]
	closed   atomic.Bool

	// createMu is read-held by CreateSession for its whole run; Close takes
	// it exclusively so no create can register a session after Close has
	// collected the ones it kills.
	createMu sync.RWMutex
}

func New(opts ...Option) *Manager {
	cfg := config{
		geometry:     api.Geometry{Rows: api.DefaultRows, Cols: api.DefaultCols},
		killGrace:    defaultKillGrace,
		retention:    defaultRetention,
		drainTimeout: defaultDrainTimeout,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.spawner == nil {
		cfg.spawner = NewExecSpawner(cfg.logger)
	}
	if cfg.resolver == nil {
		cfg.resolver = NewShellResolver(nil)
	}
	if cfg.sink == nil {
		cfg.sink = discardSink{}
	}
	if cfg.observer == nil {
		cfg.observer = noopObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:      ctx,
		cancel:   cancel,
		logger:   cfg.logger,
		cfg:      cfg,
		sessions: table.New[api.SessionID, *session](),
	}
}

// CreateSession spawns a shell on a new PTY and returns its id once the
// output pump is running. Nothing is registered when spawning fails.
func (m *Manager) CreateSession(ctx context.Context, req api.CreateRequest) (api.SessionID, error) {
	m.createMu.RLock()
	defer m.createMu.RUnlock()
	if m.closed.Load() {
		return 0, errdefs.ErrManagerClosed
	}

	sreq, err := m.resolveRequest(req)
	if err != nil {
		return 0, err
	}

	proc, p, err := m.cfg.spawner.Spawn(ctx, sreq)
	if err != nil {
		m.cfg.observer.SpawnFailed()
		m.logger.ErrorContext(ctx, "failed to spawn session", "shell", sreq.Path, "err", err)
		return 0, fmt.Errorf("%w: %w", errdefs.ErrSpawn, err)
	}

	id := api.SessionID(proc.Pid())
	s := newSession(id, sreq, proc, p)

	// The OS may hand out the pid of a session that exited but is still
	// retained; that entry is already reaped and can go.
	errInsert := m.sessions.Insert(id, s, func(old *session) bool {
		if old.State() != api.Exited {
			return false
		}
		old.markRemoved()
		m.forget(old.id)
		return true
	})
	if errInsert != nil {
		m.logger.ErrorContext(ctx, "could not register session", "id", id, "err", errInsert)
		_ = proc.Kill()
		_ = p.Close()
		go func() { _, _ = proc.Wait() }()
		m.cfg.observer.SpawnFailed()
		return 0, fmt.Errorf("%w: %w", errdefs.ErrSpawn, errInsert)
	}

	go m.wait(s)

	ready := make(chan struct{})
	go m.pump(s, ready)
	<-ready

	s.setRunning()
	m.cfg.observer.SessionStarted()
	m.logger.InfoContext(ctx, "session created", "id", id, "shell", sreq.Path, "geometry", sreq.Geometry.String())
	return id, nil
}

func (m *Manager) resolveRequest(req api.CreateRequest) (SpawnRequest, error) {
	if req.Profile != "" {
		merged, err := m.applyProfile(req)
		if err != nil {
			return SpawnRequest{}, err
		}
		req = merged
	}

	g := req.Geometry
	if g.IsZero() {
		g = m.cfg.geometry
	}
	if !g.Valid() {
		return SpawnRequest{}, errdefs.ErrInvalidGeometry
	}

	shell := req.Shell
	args := req.Args
	if shell == "" {
		resolved, err := m.cfg.resolver.Resolve()
		if err != nil {
			return SpawnRequest{}, fmt.Errorf("%w: %w", errdefs.ErrSpawn, err)
		}
		shell = resolved
		if args == nil {
			args = m.cfg.shellArgs
		}
	}

	return SpawnRequest{
		Path:     shell,
		Args:     args,
		Env:      buildEnv(parentEnv(), req.Env),
		Dir:      req.Cwd,
		Geometry: g,
	}, nil
}

// applyProfile fills the request's empty fields from the named profile.
// Explicit request fields win; env maps are merged.
func (m *Manager) applyProfile(req api.CreateRequest) (api.CreateRequest, error) {
	if m.cfg.profiles == nil {
		return req, fmt.Errorf("%w: %s", errdefs.ErrProfileNotFound, req.Profile)
	}
	spec, err := m.cfg.profiles.Lookup(req.Profile)
	if err != nil {
		return req, err
	}
	if req.Shell == "" {
		req.Shell = spec.Shell
		if req.Args == nil {
			req.Args = spec.Args
		}
	}
	if req.Cwd == "" {
		req.Cwd = spec.Cwd
	}
	if req.Geometry.IsZero() && spec.Rows > 0 && spec.Cols > 0 {
		req.Geometry = api.Geometry{Rows: spec.Rows, Cols: spec.Cols}
	}
	if len(spec.Env) > 0 {
		env := maps.Clone(spec.Env)
		maps.Copy(env, req.Env)
		req.Env = env
	}
	return req, nil
}

// lookup returns a session that still accepts input.
func (m *Manager) lookup(id api.SessionID) (*session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", errdefs.ErrNotFound, id)
	}
	switch s.State() {
	case api.Running:
		return s, nil
	case api.Exited:
		return nil, fmt.Errorf("%w: %d", errdefs.ErrSessionClosed, id)
	default:
		return nil, fmt.Errorf("%w: %d", errdefs.ErrNotFound, id)
	}
}

// Write forwards p to the session's terminal input unchanged.
func (m *Manager) Write(id api.SessionID, p []byte) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, errW := s.pty.Write(p)
	m.cfg.observer.BytesIn(n)
	if errW != nil {
		switch st := s.State(); {
		case st == api.Killed || st == api.Removed:
			return fmt.Errorf("%w: %d", errdefs.ErrNotFound, id)
		case st == api.Exited || endOfStream(errW):
			// the pump closes the master as soon as output ends, which can
			// be observed just before the waiter records the exit
			return fmt.Errorf("%w: %d", errdefs.ErrSessionClosed, id)
		default:
			return fmt.Errorf("write %d: %w", id, errW)
		}
	}
	return nil
}

// Resize changes the terminal geometry; the kernel signals the foreground
// process group with SIGWINCH.
func (m *Manager) Resize(id api.SessionID, g api.Geometry) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if !g.Valid() {
		return errdefs.ErrInvalidGeometry
	}
	if errR := s.resize(g); errR != nil {
		if s.State() == api.Exited || endOfStream(errR) {
			return fmt.Errorf("%w: %d", errdefs.ErrSessionClosed, id)
		}
		return fmt.Errorf("resize %d: %w", id, errR)
	}
	m.logger.Debug("session resized", "id", id, "geometry", g.String())
	return nil
}

// Kill removes the session and terminates its process group, escalating to
// SIGKILL after the grace period. It returns once the OS has reaped the
// process and the pump has stopped.
func (m *Manager) Kill(ctx context.Context, id api.SessionID) error {
	s, ok := m.sessions.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %d", errdefs.ErrNotFound, id)
	}
	m.cfg.observer.SessionRemoved()
	m.logger.InfoContext(ctx, "killing session", "id", id)
	if err := m.terminate(ctx, s); err != nil {
		return err
	}
	m.forget(id)
	return nil
}

// forget tells a sink that keeps per-session state that the session is gone.
func (m *Manager) forget(id api.SessionID) {
	if f, ok := m.cfg.sink.(Forgetter); ok {
		f.Forget(id)
	}
}

func (m *Manager) terminate(ctx context.Context, s *session) error {
	defer s.markRemoved()

	if s.markKilled() {
		if err := s.proc.Terminate(); err != nil {
			m.logger.WarnContext(ctx, "could not signal session", "id", s.id, "err", err)
		}
		timer := time.NewTimer(m.cfg.killGrace)
		select {
		case <-s.exited:
			timer.Stop()
		case <-timer.C:
			m.logger.WarnContext(ctx, "session ignored termination, killing", "id", s.id)
			_ = s.proc.Kill()
		case <-ctx.Done():
			timer.Stop()
			_ = s.proc.Kill()
		}
	}

	// unblocks the pump's read
	_ = s.pty.Close()

	for _, ch := range []<-chan struct{}{s.exited, s.pumpDone} {
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", errdefs.ErrContextDone, ctx.Err())
		}
	}
	m.logger.InfoContext(ctx, "session killed", "id", s.id)
	return nil
}

// wait reaps the process. If the pump is still blocked afterwards because
// another process holds the terminal open, the master is closed once the
// drain timeout passes.
func (m *Manager) wait(s *session) {
	code, err := s.proc.Wait()
	if err != nil {
		m.logger.Warn("wait on session process failed", "id", s.id, "err", err)
	}
	s.markExited(code)
	close(s.exited)
	m.logger.Info("session process exited", "id", s.id, "exit_code", code)

	timer := time.NewTimer(m.cfg.drainTimeout)
	defer timer.Stop()
	select {
	case <-s.pumpDone:
	case <-timer.C:
		m.logger.Debug("closing pty after drain timeout", "id", s.id)
		_ = s.pty.Close()
	}
}

// retire drops a session that ended on its own once its retention window
// has passed. Killed sessions are already out of the table.
func (m *Manager) retire(s *session) {
	remove := func() {
		if _, ok := m.sessions.RemoveIf(s.id, func(v *session) bool { return v == s }); ok {
			s.markRemoved()
			m.forget(s.id)
			m.cfg.observer.SessionRemoved()
			m.logger.Debug("session removed", "id", s.id)
		}
	}
	if m.cfg.retention <= 0 {
		remove()
		return
	}
	time.AfterFunc(m.cfg.retention, remove)
}

func (m *Manager) Get(id api.SessionID) (api.SessionInfo, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return api.SessionInfo{}, fmt.Errorf("%w: %d", errdefs.ErrNotFound, id)
	}
	return s.info(), nil
}

func (m *Manager) List() []api.SessionInfo {
	sessions := m.sessions.Values()
	out := make([]api.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.info())
	}
	return out
}

func (m *Manager) Len() int { return m.sessions.Len() }

// Close kills every session concurrently and stops accepting new ones.
func (m *Manager) Close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	defer m.cancel()

	// wait for creates already past the closed check
	m.createMu.Lock()
	m.createMu.Unlock() //nolint:staticcheck // empty critical section

	m.logger.InfoContext(ctx, "closing session manager", "sessions", m.sessions.Len())
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range m.sessions.Keys() {
		g.Go(func() error {
			if err := m.Kill(gctx, id); err != nil && !errors.Is(err, errdefs.ErrNotFound) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
