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

package session

import (
	"fmt"
	"log/slog"

	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
)

func NewSessionCmd() *cobra.Command {
	// sessionCmd represents the session command.
	sessionCmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions", "s"},
		Short:   "Manage warpd sessions (category, not a final command)",
		Long: `This is a category command for managing warpd sessions.
See 'warp session --help' for available subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	setupSessionCmd(sessionCmd)
	return sessionCmd
}

func setupSessionCmd(sessionCmd *cobra.Command) {
	sessionCmd.AddCommand(NewCreateCmd())
	sessionCmd.AddCommand(NewWriteCmd())
	sessionCmd.AddCommand(NewResizeCmd())
	sessionCmd.AddCommand(NewKillCmd())
	sessionCmd.AddCommand(NewListCmd())
	sessionCmd.AddCommand(NewGetCmd())
}

func loggerFrom(cmd *cobra.Command) (*slog.Logger, error) {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return nil, errdefs.ErrLoggerNotFound
	}
	return logger, nil
}

// sessionArg parses the session id in args[0] and rejects extra arguments
// beyond want.
func sessionArg(args []string, want int) (api.SessionID, error) {
	if len(args) == 0 {
		return 0, errdefs.ErrNoSessionIdentifier
	}
	if len(args) > want {
		return 0, errdefs.ErrTooManyArguments
	}
	id, err := api.ParseSessionID(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errdefs.ErrInvalidArgument, err)
	}
	return id, nil
}

func geometryFlags(cmd *cobra.Command) (api.Geometry, error) {
	rows, _ := cmd.Flags().GetUint16("rows")
	cols, _ := cmd.Flags().GetUint16("cols")
	g := api.Geometry{Rows: rows, Cols: cols}
	if (rows == 0) != (cols == 0) {
		return g, fmt.Errorf("%w: --rows and --cols must be given together", errdefs.ErrInvalidFlag)
	}
	return g, nil
}
