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

	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
)

func NewResizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "resize <id> --rows N --cols N",
		Short:             "Change the terminal size of a session",
		SilenceUsage:      true,
		RunE:              runResize,
		ValidArgsFunction: completeSessionIDs,
	}
	cmd.Flags().Uint16("rows", 0, "Terminal rows")
	cmd.Flags().Uint16("cols", 0, "Terminal columns")
	_ = cmd.MarkFlagRequired("rows")
	_ = cmd.MarkFlagRequired("cols")
	return cmd
}

func runResize(cmd *cobra.Command, args []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}
	id, err := sessionArg(args, 1)
	if err != nil {
		return err
	}
	g, err := geometryFlags(cmd)
	if err != nil {
		return err
	}
	if !g.Valid() {
		return fmt.Errorf("%w: --rows and --cols are required", errdefs.ErrInvalidFlag)
	}

	logger.DebugContext(cmd.Context(), "session resize command invoked", "id", id, "geometry", g.String())

	client := config.ClientFromContext(cmd.Context())
	defer client.Close()
	return client.Resize(cmd.Context(), id, g)
}
