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

package config

import (
	"context"
	"errors"
	"log/slog"

	"github.com/patrickjquinn/project-warp/internal/logging"
	"github.com/patrickjquinn/project-warp/internal/profile"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/spf13/afero"
)

func AutoCompleteListProfileNames(ctx context.Context, logger *slog.Logger, profilesFile string) ([]string, error) {
	// logger is not set on autocomplete calls
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	store := profile.NewStore(afero.NewOsFs(), profilesFile, logger)
	if err := store.Reload(ctx); err != nil {
		logger.ErrorContext(ctx, "ListProfiles: failed to load profiles", "path", profilesFile, "error", err)
		return nil, err
	}
	profiles := store.List()
	if len(profiles) == 0 {
		return nil, errors.New("no profiles found")
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Metadata.Name)
	}
	return names, nil
}

// AutoCompleteListSessionIDs asks the running daemon for its sessions.
func AutoCompleteListSessionIDs(ctx context.Context, showExited bool) ([]string, error) {
	client := ClientFromContext(ctx)
	defer client.Close()

	sessions, err := client.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if showExited || s.State == api.Running {
			ids = append(ids, s.ID.String())
		}
	}
	return ids, nil
}
