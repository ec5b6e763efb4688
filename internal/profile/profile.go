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

// Package profile loads named session presets from a YAML or TOML file.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// tomlFile is the TOML layout: one [[profiles]] table per preset.
type tomlFile struct {
	Profiles []api.SessionProfileDoc `toml:"profiles"`
}

// LoadFromReader decodes profiles from r. format is "yaml" or "toml"; YAML
// input may hold several '---' separated documents.
func LoadFromReader(r io.Reader, format string) ([]api.SessionProfileDoc, error) {
	var docs []api.SessionProfileDoc
	switch format {
	case "toml":
		var f tomlFile
		if err := toml.NewDecoder(r).Decode(&f); err != nil {
			return nil, fmt.Errorf("decode profiles: %w", err)
		}
		docs = f.Profiles
	case "yaml", "":
		dec := yaml.NewDecoder(r)
		for {
			var p api.SessionProfileDoc
			if err := dec.Decode(&p); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("decode profile: %w", err)
			}
			docs = append(docs, p)
		}
	default:
		return nil, fmt.Errorf("unknown profile format %q", format)
	}

	out := make([]api.SessionProfileDoc, 0, len(docs))
	for _, p := range docs {
		if err := Validate(p); err != nil {
			slog.Debug("skipping invalid profile document", "name", p.Metadata.Name, "err", err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func Validate(p api.SessionProfileDoc) error {
	if p.APIVersion == "" || p.Kind == "" {
		return errors.New("invalid profile: missing apiVersion/kind")
	}
	if p.Kind != api.KindSessionProfile {
		return fmt.Errorf("invalid kind %q (expected %q)", p.Kind, api.KindSessionProfile)
	}
	if p.Metadata.Name == "" {
		return errors.New("invalid profile: metadata.name is required")
	}
	if (p.Spec.Rows == 0) != (p.Spec.Cols == 0) {
		return fmt.Errorf("invalid profile %q: rows and cols must be set together", p.Metadata.Name)
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// Store holds the profiles of one file. A missing file is an empty store.
type Store struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	profiles []api.SessionProfileDoc
}

func NewStore(fs afero.Fs, path string, logger *slog.Logger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path, logger: logger}
}

func (s *Store) Path() string { return s.path }

// Reload re-reads the file. On a decode error the previous profiles stay.
func (s *Store) Reload(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if ok, _ := afero.Exists(s.fs, s.path); !ok {
			s.logger.DebugContext(ctx, "profiles file not found", "path", s.path)
			s.set(nil)
			return nil
		}
		return fmt.Errorf("open profiles file %q: %w", s.path, err)
	}

	profiles, err := LoadFromReader(bytes.NewReader(b), formatOf(s.path))
	if err != nil {
		return err
	}
	s.set(profiles)
	s.logger.InfoContext(ctx, "profiles loaded", "path", s.path, "count", len(profiles))
	return nil
}

func (s *Store) set(p []api.SessionProfileDoc) {
	s.mu.Lock()
	s.profiles = p
	s.mu.Unlock()
}

func (s *Store) List() []api.SessionProfileDoc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.SessionProfileDoc, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Lookup returns the spec of the first profile named name.
func (s *Store) Lookup(name string) (api.SessionProfileSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.Metadata.Name == name {
			return p.Spec, nil
		}
	}
	return api.SessionProfileSpec{}, fmt.Errorf("%w: %q", errdefs.ErrProfileNotFound, name)
}
