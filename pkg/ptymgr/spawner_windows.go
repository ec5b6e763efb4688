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

//go:build windows

package ptymgr

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type unsupportedSpawner struct{}

// NewExecSpawner returns a Spawner that always fails: ConPTY support is not
// wired yet.
func NewExecSpawner(_ *slog.Logger) Spawner {
	return unsupportedSpawner{}
}

func (unsupportedSpawner) Spawn(_ context.Context, _ SpawnRequest) (Process, PTY, error) {
	return nil, nil, errdefs.ErrUnsupportedPlatform
}

func endOfStream(err error) bool {
	return errors.Is(err, os.ErrClosed) || isEOF(err)
}
