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

// Package shared holds run-directory helpers used by both warpd and warp.
package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

const MetadataFile = "metadata.json"

func WriteMetadata(_ context.Context, metadata any, dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrWriteMetadata, err)
	}
	dst := filepath.Join(dir, MetadataFile)
	marshaled, marshalErr := json.MarshalIndent(metadata, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("marshal %s: %w", dir, marshalErr)
	}
	marshaled = append(marshaled, '\n')

	const filePerm = 0o644
	if writeErr := atomicWriteFile(dst, marshaled, filePerm); writeErr != nil {
		return fmt.Errorf("%w: write %s: %w", errdefs.ErrWriteMetadata, dst, writeErr)
	}
	return nil
}

// ReadDaemonMetadata returns the metadata of the daemon serving runPath.
// A missing file, or one left by a dead process, is ErrDaemonNotRunning.
func ReadDaemonMetadata(_ context.Context, runPath string) (*api.DaemonMetadata, error) {
	b, err := os.ReadFile(filepath.Join(runPath, MetadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errdefs.ErrDaemonNotRunning
		}
		return nil, err
	}
	var md api.DaemonMetadata
	if errU := json.Unmarshal(b, &md); errU != nil {
		return nil, fmt.Errorf("decode %s: %w", MetadataFile, errU)
	}
	if !ProcessAlive(md.Pid) {
		return &md, errdefs.ErrDaemonNotRunning
	}
	return &md, nil
}

func RemoveMetadata(runPath string) error {
	err := os.Remove(filepath.Join(runPath, MetadataFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// atomicWriteFile writes to a temp file in the same dir, fsyncs, then renames.
func atomicWriteFile(dst string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(dst)

	f, createErr := os.CreateTemp(dir, ".meta-*.tmp")
	if createErr != nil {
		return createErr
	}
	tmp := f.Name()
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}()

	if chmodErr := f.Chmod(mode); chmodErr != nil {
		return fmt.Errorf("chmod: %w", chmodErr)
	}
	if _, writeErr := f.Write(data); writeErr != nil {
		return fmt.Errorf("write: %w", writeErr)
	}
	if syncErr := f.Sync(); syncErr != nil {
		return fmt.Errorf("fsync: %w", syncErr)
	}
	if closeErr := f.Close(); closeErr != nil {
		return fmt.Errorf("close: %w", closeErr)
	}
	if renameErr := os.Rename(tmp, dst); renameErr != nil {
		return fmt.Errorf("rename: %w", renameErr)
	}
	if d, openErr := os.Open(dir); openErr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
