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
	"io"

	"github.com/patrickjquinn/project-warp/pkg/api"
)

// SpawnRequest is a fully resolved shell invocation.
type SpawnRequest struct {
	Path     string
	Args     []string
	Env      []string
	Dir      string
	Geometry api.Geometry
}

// Spawner allocates a PTY and starts a process on its slave side. On error
// nothing is left running and both PTY ends are released.
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) (Process, PTY, error)
}

type Process interface {
	Pid() int
	// Terminate asks the process group to exit.
	Terminate() error
	// Kill forcibly stops the process group.
	Kill() error
	// Wait blocks until the process exits and reports its exit code. A
	// process ended by a signal reports 128 + signal number.
	Wait() (int, error)
}

// PTY is the master side of a pseudo-terminal. Close is idempotent and
// unblocks a pending Read.
type PTY interface {
	io.Reader
	io.Writer
	Resize(g api.Geometry) error
	Close() error
}

// isEOF is the end-of-stream check shared by the platform spawners.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)
}
