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
	"fmt"
	"os"
	"runtime"
	"slices"
	"sort"

	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/afero"
)

const windowsShell = "cmd.exe"

// DefaultShellCandidates is the search order used when no shell is given:
// zsh first, then bash, in their usual install locations.
func DefaultShellCandidates() []string {
	return []string{
		"/bin/zsh",
		"/usr/bin/zsh",
		"/usr/local/bin/zsh",
		"/opt/homebrew/bin/zsh",
		"/bin/bash",
		"/usr/bin/bash",
		"/usr/local/bin/bash",
		"/bin/sh",
	}
}

// ShellResolver picks the shell for sessions created without an explicit
// one.
type ShellResolver struct {
	fs         afero.Fs
	goos       string
	candidates []string
}

// NewShellResolver searches candidates on fs in order. With no candidates
// the platform defaults are used.
func NewShellResolver(fs afero.Fs, candidates ...string) *ShellResolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if len(candidates) == 0 {
		candidates = DefaultShellCandidates()
	}
	return &ShellResolver{fs: fs, goos: runtime.GOOS, candidates: slices.Clone(candidates)}
}

func (r *ShellResolver) Candidates() []string { return slices.Clone(r.candidates) }

// Resolve returns the first usable candidate. On Windows the command
// interpreter is always used.
func (r *ShellResolver) Resolve() (string, error) {
	if r.goos == "windows" {
		return windowsShell, nil
	}
	for _, c := range r.candidates {
		fi, err := r.fs.Stat(c)
		if err != nil || fi.IsDir() {
			continue
		}
		if fi.Mode().Perm()&0o111 == 0 {
			continue
		}
		return c, nil
	}
	return "", fmt.Errorf("%w: tried %v", errdefs.ErrNoShell, r.candidates)
}

// buildEnv returns the inherited environment with extra layered on top.
// TERM defaults to xterm-256color so colour output works in most shells.
func buildEnv(base []string, extra map[string]string) []string {
	env := slices.Clone(base)

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}

	if !hasEnv(env, "TERM") {
		env = append(env, "TERM=xterm-256color", "COLORTERM=truecolor")
	}
	return env
}

func hasEnv(env []string, key string) bool {
	prefix := key + "="
	for _, e := range env {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func parentEnv() []string { return os.Environ() }
