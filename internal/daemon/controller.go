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

// Package daemon runs warpd: the session manager and every transport in
// front of it.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickjquinn/project-warp/internal/clipboard"
	"github.com/patrickjquinn/project-warp/internal/core"
	"github.com/patrickjquinn/project-warp/internal/eventhub"
	"github.com/patrickjquinn/project-warp/internal/monitoring"
	"github.com/patrickjquinn/project-warp/internal/profile"
	"github.com/patrickjquinn/project-warp/internal/server/httpserver"
	"github.com/patrickjquinn/project-warp/internal/server/rpcserver"
	"github.com/patrickjquinn/project-warp/internal/shared"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/patrickjquinn/project-warp/pkg/ptymgr"
	"github.com/spf13/afero"
)

const shutdownTimeout = 10 * time.Second

type Controller struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	logger *slog.Logger
	cfg    Config

	// serveCtx outlives ctx so transports keep answering while sessions
	// are being torn down.
	serveCtx    context.Context
	serveCancel context.CancelFunc

	manager  *ptymgr.Manager
	hub      *eventhub.Hub
	metrics  *monitoring.Metrics
	profiles *profile.Store

	running  atomic.Bool
	readyCh  chan struct{}
	closedCh chan struct{}
	stopOnce sync.Once

	rpcReadyCh  chan error
	rpcDoneCh   chan error
	httpReadyCh chan error
	httpDoneCh  chan error
	httpAddr    string
}

var (
	_ api.DaemonController = (*Controller)(nil)
	_ ptymgr.Sink           = (*eventhub.Hub)(nil)
	_ ptymgr.Forgetter      = (*eventhub.Hub)(nil)
)

func NewController(ctx context.Context, logger *slog.Logger, cfg Config) *Controller {
	newCtx, cancel := context.WithCancelCause(ctx)
	serveCtx, serveCancel := context.WithCancel(context.WithoutCancel(ctx))
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	c := &Controller{
		ctx:         newCtx,
		cancel:      cancel,
		logger:      logger,
		cfg:         cfg,
		serveCtx:    serveCtx,
		serveCancel: serveCancel,
		readyCh:     make(chan struct{}),
		closedCh:    make(chan struct{}),
		rpcReadyCh:  make(chan error, 1),
		rpcDoneCh:   make(chan error, 1),
		httpReadyCh: make(chan error, 1),
		httpDoneCh:  make(chan error, 1),
	}
	logger.DebugContext(ctx, "daemon controller created", "runPath", cfg.RunPath)
	return c
}

func (c *Controller) WaitReady() error {
	select {
	case <-c.readyCh:
		c.logger.DebugContext(c.ctx, "controller is ready")
		return nil
	case <-c.ctx.Done():
		c.logger.WarnContext(c.ctx, "WaitReady: context done", "error", c.ctx.Err())
		return context.Cause(c.ctx)
	}
}

func (c *Controller) WaitClose() error {
	<-c.closedCh
	c.logger.InfoContext(c.ctx, "controller exited")
	return nil
}

// Close asks Run to stop and waits until it has.
func (c *Controller) Close(reason error) error {
	cause := errdefs.ErrCloseReq
	if reason != nil {
		cause = fmt.Errorf("%w: %w", errdefs.ErrCloseReq, reason)
	}
	c.logger.InfoContext(c.ctx, "close requested", "reason", reason)
	c.cancel(cause)
	if c.running.Load() {
		<-c.closedCh
	}
	return nil
}

func (c *Controller) build() {
	cfg := c.cfg

	c.profiles = profile.NewStore(cfg.Fs, cfg.ProfilesFile, c.logger.With("component", "profiles"))
	if err := c.profiles.Reload(c.ctx); err != nil {
		c.logger.ErrorContext(c.ctx, "could not load profiles", "path", cfg.ProfilesFile, "err", err)
	}

	c.metrics = monitoring.New()

	hubOpts := []eventhub.Option{eventhub.WithGauge(c.metrics.Subscribers), eventhub.WithQueueSize(cfg.QueueSize)}
	switch {
	case cfg.ReplayBytes > 0:
		hubOpts = append(hubOpts, eventhub.WithReplayBytes(cfg.ReplayBytes))
	case cfg.ReplayBytes < 0:
		hubOpts = append(hubOpts, eventhub.WithReplayBytes(0))
	}
	c.hub = eventhub.New(c.logger.With("component", "eventhub"), hubOpts...)

	spawner := cfg.Spawner
	if spawner == nil {
		spawner = ptymgr.NewExecSpawner(c.logger)
	}
	opts := []ptymgr.Option{
		ptymgr.WithLogger(c.logger.With("component", "ptymgr")),
		ptymgr.WithSpawner(spawner),
		ptymgr.WithShellResolver(ptymgr.NewShellResolver(cfg.Fs, cfg.ShellCandidates...)),
		ptymgr.WithSink(c.hub),
		ptymgr.WithObserver(c.metrics),
		ptymgr.WithProfiles(c.profiles),
	}
	if len(cfg.ShellArgs) > 0 {
		opts = append(opts, ptymgr.WithShellArgs(cfg.ShellArgs...))
	}
	if !cfg.DefaultGeometry.IsZero() {
		opts = append(opts, ptymgr.WithDefaultGeometry(cfg.DefaultGeometry))
	}
	if cfg.KillGrace > 0 {
		opts = append(opts, ptymgr.WithKillGrace(cfg.KillGrace))
	}
	if cfg.Retention > 0 {
		opts = append(opts, ptymgr.WithRetention(cfg.Retention))
	}
	if cfg.DrainTimeout > 0 {
		opts = append(opts, ptymgr.WithDrainTimeout(cfg.DrainTimeout))
	}
	c.manager = ptymgr.New(opts...)
}

// Run starts every component, then blocks until the context is done, Close
// is called or a transport fails. Sessions are killed before it returns.
//
//nolint:funlen // linear startup sequence
func (c *Controller) Run() error {
	c.running.Store(true)
	defer close(c.closedCh)
	defer c.logger.InfoContext(c.ctx, "controller stopped")

	c.build()

	var sys clipboard.SystemClipboard
	if c.cfg.SystemClipboard {
		sys = clipboard.OSClipboard()
	}
	clip := clipboard.New(c.cfg.Fs, c.logger.With("component", "clipboard"), sys)
	warpCore := core.New(c.logger, c.manager, clip, c.profiles)

	ln, errOpen := rpcserver.OpenSocket(c.ctx, c.logger, c.cfg.socketPath())
	if errOpen != nil {
		return c.fail(errOpen)
	}
	rpc := &rpcserver.WarpControllerRPC{Core: warpCore, Ctx: c.serveCtx, Recorder: c.metrics}
	go rpcserver.Serve(c.serveCtx, c.logger.With("component", "rpc"), ln, rpc, c.rpcReadyCh, c.rpcDoneCh)
	if errC := <-c.rpcReadyCh; errC != nil {
		c.logger.ErrorContext(c.ctx, "failed to start rpc server", "err", errC)
		return c.fail(fmt.Errorf("%w: %w", errdefs.ErrStartRPCServer, errC))
	}

	var httpDone <-chan error
	if c.cfg.HTTPListen != "" {
		lnCfg := net.ListenConfig{}
		hln, errL := lnCfg.Listen(c.ctx, "tcp", c.cfg.HTTPListen)
		if errL != nil {
			c.logger.ErrorContext(c.ctx, "cannot listen for http", "addr", c.cfg.HTTPListen, "err", errL)
			return c.fail(fmt.Errorf("%w: %w", errdefs.ErrStartHTTPServer, errL))
		}
		c.httpAddr = hln.Addr().String()
		srv := httpserver.New(c.cfg.HTTP, c.logger.With("component", "http"), warpCore, c.hub, c.metrics)
		go srv.Serve(c.serveCtx, hln, c.httpReadyCh, c.httpDoneCh)
		if errH := <-c.httpReadyCh; errH != nil {
			return c.fail(fmt.Errorf("%w: %w", errdefs.ErrStartHTTPServer, errH))
		}
		httpDone = c.httpDoneCh
	}

	md := api.DaemonMetadata{
		Pid:        os.Getpid(),
		Socket:     c.cfg.socketPath(),
		HTTPListen: c.httpAddr,
		StartedAt:  time.Now().UTC(),
		Version:    c.cfg.Version,
	}
	if errMd := shared.WriteMetadata(c.ctx, md, c.cfg.RunPath); errMd != nil {
		c.logger.ErrorContext(c.ctx, "could not write metadata file", "err", errMd)
		return c.fail(errMd)
	}

	if c.cfg.WatchProfiles && c.cfg.ProfilesFile != "" {
		go func() {
			if err := c.profiles.Watch(c.ctx); err != nil {
				c.logger.WarnContext(c.ctx, "profiles watcher stopped", "err", err)
			}
		}()
	}

	c.logger.InfoContext(c.ctx, "controller ready", "socket", md.Socket, "http", c.httpAddr)
	close(c.readyCh)

	select {
	case <-c.ctx.Done():
		cause := context.Cause(c.ctx)
		c.shutdown()
		if errors.Is(cause, errdefs.ErrCloseReq) {
			return cause
		}
		return fmt.Errorf("%w: %w", errdefs.ErrContextDone, cause)

	case err := <-c.rpcDoneCh:
		c.logger.ErrorContext(c.ctx, "rpc server has failed", "err", err)
		return c.fail(fmt.Errorf("%w: %w", errdefs.ErrRPCServerExited, err))

	case err := <-httpDone:
		c.logger.ErrorContext(c.ctx, "http server has failed", "err", err)
		return c.fail(fmt.Errorf("%w: %w", errdefs.ErrHTTPServerExited, err))
	}
}

func (c *Controller) fail(err error) error {
	c.cancel(err)
	c.shutdown()
	return err
}

// shutdown kills every session, ends the event streams and stops the
// transports, in that order.
func (c *Controller) shutdown() {
	c.stopOnce.Do(func() {
		c.logger.InfoContext(c.ctx, "initiating shutdown sequence")
		if c.manager != nil {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), shutdownTimeout)
			if err := c.manager.Close(ctx); err != nil {
				c.logger.WarnContext(ctx, "sessions did not stop cleanly", "err", err)
			}
			cancel()
		}
		if c.hub != nil {
			c.hub.Close()
		}
		c.serveCancel()
		c.cancel(errdefs.ErrCloseReq)
		if err := shared.RemoveMetadata(c.cfg.RunPath); err != nil {
			c.logger.WarnContext(c.ctx, "could not remove metadata", "err", err)
		}
	})
}

// HTTPAddr is the bound HTTP address once Run is ready.
func (c *Controller) HTTPAddr() string { return c.httpAddr }

func (c *Controller) SocketPath() string { return c.cfg.socketPath() }
