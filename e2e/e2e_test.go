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

package e2e_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/patrickjquinn/project-warp/internal/shared"
	"github.com/patrickjquinn/project-warp/pkg/api"
)

const (
	warp  = "warp"
	warpd = "warpd"
)

// binPath returns the built binary, skipping the test when it is missing.
// Build with: go build -o bin/warp ./cmd && ln -s warp bin/warpd
func binPath(t *testing.T, command string) string {
	t.Helper()

	dir := os.Getenv("E2E_BIN_DIR")
	if dir == "" {
		dir = filepath.Join("..", "bin")
	}
	bin, err := filepath.Abs(filepath.Join(dir, command))
	if err != nil {
		t.Fatalf("resolve %s: %v", command, err)
	}
	if _, err = os.Stat(bin); os.IsNotExist(err) {
		t.Skipf("binary %s not found, skipping", bin)
	}
	return bin
}

// testEnv isolates a test from the user's ~/.warp.
type testEnv struct {
	runPath string
	vars    []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// unix socket paths are short; t.TempDir can exceed the limit
	runPath, err := os.MkdirTemp("", "warp-e2e-")
	if err != nil {
		t.Fatalf("mkdir run path: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(runPath) })

	configFile := filepath.Join(runPath, "config.yaml")
	if err = os.WriteFile(configFile, []byte("warpd: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &testEnv{
		runPath: runPath,
		vars: []string{
			"WARP_CONFIG_FILE=" + configFile,
			"WARP_RUN_PATH=" + runPath,
			"WARP_PROFILES_FILE=" + filepath.Join(runPath, "profiles.yaml"),
			"WARPD_HTTP_LISTEN=127.0.0.1:0",
			"WARPD_SHELL=/bin/sh",
			"WARP_SOCKET=",
			"WARP_HTTP=",
			"TERM=xterm",
			"LANG=C",
		},
	}
}

func (e *testEnv) environ() []string { return append(os.Environ(), e.vars...) }

// startDaemon runs warpd until the test ends and waits for its metadata.
func (e *testEnv) startDaemon(t *testing.T) *api.DaemonMetadata {
	t.Helper()

	cmd := exec.Command(binPath(t, warpd), "--log-level", "debug",
		"--log-file", filepath.Join(e.runPath, "warpd.log"))
	cmd.Env = e.environ()
	if err := cmd.Start(); err != nil {
		t.Fatalf("start warpd: %v", err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	t.Cleanup(func() {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case err := <-exited:
			if err != nil {
				t.Errorf("warpd exited with error: %v", err)
			}
		case <-time.After(10 * time.Second):
			_ = cmd.Process.Kill()
			t.Errorf("warpd did not stop on SIGTERM")
		}
		if log, err := os.ReadFile(filepath.Join(e.runPath, "warpd.log")); err == nil {
			t.Logf("warpd log:\n%s", log)
		}
	})

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		md, err := shared.ReadDaemonMetadata(context.Background(), e.runPath)
		if err == nil {
			return md
		}
		select {
		case errW := <-exited:
			t.Fatalf("warpd exited early: %v", errW)
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatalf("warpd did not write its metadata")
	return nil
}

// runWarp runs the warp CLI and returns its trimmed combined output.
func (e *testEnv) runWarp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binPath(t, warp), args...)
	cmd.Env = e.environ()
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

func (e *testEnv) mustWarp(t *testing.T, args ...string) string {
	t.Helper()

	out, err := e.runWarp(t, args...)
	if err != nil {
		t.Fatalf("warp %v failed: %v\noutput:\n%s", args, err, out)
	}
	return out
}
