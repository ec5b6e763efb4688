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

//go:build !windows

package ptymgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"golang.org/x/sys/unix"
)

type execSpawner struct {
	logger *slog.Logger
}

// NewExecSpawner returns the Spawner backed by the host's pseudo-terminals.
func NewExecSpawner(logger *slog.Logger) Spawner {
	return &execSpawner{logger: logger}
}

func (e *execSpawner) Spawn(ctx context.Context, req SpawnRequest) (Process, PTY, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ptmx, pts, errOpen := pty.Open()
	if errOpen != nil {
		return nil, nil, fmt.Errorf("error opening pty: %w", errOpen)
	}

	// Size the terminal before the shell starts so its first prompt is laid
	// out for the requested geometry.
	if errS := pty.Setsize(ptmx, winsize(req.Geometry)); errS != nil {
		_ = pts.Close()
		_ = ptmx.Close()
		return nil, nil, fmt.Errorf("error setting initial pty size: %w", errS)
	}

	//nolint:gosec // the shell and its args come from the caller
	cmd := exec.Command(req.Path, req.Args...)
	cmd.Env = req.Env
	cmd.Dir = req.Dir
	cmd.Stdin = pts
	cmd.Stdout = pts
	cmd.Stderr = pts
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true, // new session, the shell leads its own process group
		Setctty: true, // the pts becomes its controlling terminal
	}

	if errStart := cmd.Start(); errStart != nil {
		_ = pts.Close()
		_ = ptmx.Close()
		return nil, nil, fmt.Errorf("error starting %s in pty: %w", req.Path, errStart)
	}

	// pts is now held by the child
	if errC := pts.Close(); errC != nil {
		e.logger.Warn("error closing pts file descriptor", "pid", cmd.Process.Pid, "err", errC)
	}

	e.logger.Debug("process started in pty", "pid", cmd.Process.Pid, "path", req.Path, "tty", pts.Name())
	return &execProcess{cmd: cmd}, &filePTY{f: ptmx}, nil
}

func winsize(g api.Geometry) *pty.Winsize {
	return &pty.Winsize{Rows: g.Rows, Cols: g.Cols, X: g.PixelWidth, Y: g.PixelHeight}
}

type execProcess struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	reaped bool
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

// signalGroup signals the whole process group led by the shell. Once the
// shell is reaped its pid may be reused, so nothing is sent after that.
func (p *execProcess) signalGroup(sig unix.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reaped {
		return nil
	}
	err := unix.Kill(-p.cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (p *execProcess) Terminate() error {
	// A closing terminal delivers SIGHUP; interactive shells ignore SIGTERM
	// but exit on hangup.
	if err := p.signalGroup(unix.SIGHUP); err != nil {
		return err
	}
	return p.signalGroup(unix.SIGTERM)
}

func (p *execProcess) Kill() error {
	return p.signalGroup(unix.SIGKILL)
}

func (p *execProcess) Wait() (int, error) {
	errWait := p.cmd.Wait()

	p.mu.Lock()
	p.reaped = true
	p.mu.Unlock()

	state := p.cmd.ProcessState
	if state == nil {
		return -1, errWait
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		//nolint:mnd // shell convention for signal exits
		return 128 + int(ws.Signal()), nil
	}
	var exitErr *exec.ExitError
	if errWait != nil && !errors.As(errWait, &exitErr) {
		return state.ExitCode(), errWait
	}
	return state.ExitCode(), nil
}

type filePTY struct {
	f *os.File

	closeOnce sync.Once
	closeErr  error
}

func (t *filePTY) Read(p []byte) (int, error)  { return t.f.Read(p) }
func (t *filePTY) Write(p []byte) (int, error) { return t.f.Write(p) }

func (t *filePTY) Resize(g api.Geometry) error {
	return pty.Setsize(t.f, winsize(g))
}

func (t *filePTY) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.f.Close() })
	return t.closeErr
}

// endOfStream reports whether an error on the master just means the
// terminal is gone. Linux reports EIO once the last slave descriptor closes.
func endOfStream(err error) bool {
	return errors.Is(err, os.ErrClosed) ||
		errors.Is(err, syscall.EIO) ||
		errors.Is(err, syscall.EBADF) ||
		isEOF(err)
}
