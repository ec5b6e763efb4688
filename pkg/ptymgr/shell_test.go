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
	"testing"

	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellResolver_Order(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/bash", []byte("#!"), 0o755))
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/zsh", []byte("#!"), 0o755))

	r := NewShellResolver(fs)
	r.goos = "linux"

	got, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/zsh", got)
}

func TestShellResolver_SkipsNonExecutableAndDirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/bin/zsh", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/usr/bin/zsh", []byte("#!"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/bin/bash", []byte("#!"), 0o755))

	r := NewShellResolver(fs)
	r.goos = "linux"

	got, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/bin/bash", got)
}

func TestShellResolver_NoShell(t *testing.T) {
	r := NewShellResolver(afero.NewMemMapFs(), "/nope/zsh")
	r.goos = "linux"

	_, err := r.Resolve()
	assert.ErrorIs(t, err, errdefs.ErrNoShell)
}

func TestShellResolver_Windows(t *testing.T) {
	r := NewShellResolver(afero.NewMemMapFs())
	r.goos = "windows"

	got, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "cmd.exe", got)
}

func TestBuildEnv(t *testing.T) {
	env := buildEnv([]string{"HOME=/root"}, map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, []string{"HOME=/root", "A=1", "B=2", "TERM=xterm-256color", "COLORTERM=truecolor"}, env)

	env = buildEnv([]string{"TERM=dumb"}, nil)
	assert.Equal(t, []string{"TERM=dumb"}, env)

	env = buildEnv(nil, map[string]string{"TERM": "vt100"})
	assert.Equal(t, []string{"TERM=vt100"}, env)
}
