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

package profiles

import (
	"errors"
	"log/slog"

	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/internal/profile"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func NewProfilesCmd() *cobra.Command {
	// profilesCmd represents the profiles command.
	profilesCmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile", "p"},
		Short:   "Manage warp session profiles (category, not a final command)",
		Long: `This is a category command for managing warp session profiles.
See 'warp profiles --help' for available subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	profilesCmd.AddCommand(newListCmd())
	return profilesCmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List session profiles",
		Long: `List the session profiles loaded by warpd. When warpd is not running,
the profiles file is read directly.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runList,
	}
	cmd.Flags().Bool("local", false, "Read the profiles file instead of asking warpd")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return errdefs.ErrLoggerNotFound
	}

	var (
		docs []api.SessionProfileDoc
		err  error
	)
	if local, _ := cmd.Flags().GetBool("local"); !local {
		client := config.ClientFromContext(cmd.Context())
		defer client.Close()
		docs, err = client.Profiles(cmd.Context())
	}
	if local, _ := cmd.Flags().GetBool("local"); local || errors.Is(err, errdefs.ErrDaemonNotRunning) {
		path := config.PROFILES_FILE.ValueOrDefault()
		logger.DebugContext(cmd.Context(), "reading profiles file", "path", path)
		store := profile.NewStore(afero.NewOsFs(), path, logger)
		err = store.Reload(cmd.Context())
		docs = store.List()
	}
	if err != nil {
		logger.DebugContext(cmd.Context(), "profiles list failed", "error", err)
		return err
	}
	return profile.PrintTable(cmd.OutOrStdout(), docs)
}
