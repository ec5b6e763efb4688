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

package clip

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
)

func NewClipCmd() *cobra.Command {
	// clipCmd represents the clip command.
	clipCmd := &cobra.Command{
		Use:     "clip",
		Aliases: []string{"clipboard", "c"},
		Short:   "Copy and paste files through warpd clipboard slots (category, not a final command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	clipCmd.PersistentFlags().String("slot", api.DefaultClipboardSlot, "Clipboard slot")
	clipCmd.AddCommand(newCopyCmd(), newPasteCmd())
	return clipCmd
}

func newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "copy <path>",
		Short:        "Put a file or directory in a clipboard slot",
		Long:         "Put a file or directory in a clipboard slot. With --cut the next paste moves it instead of copying.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFrom(cmd)
			if err != nil {
				return err
			}
			path, err := singlePath(args)
			if err != nil {
				return err
			}
			cut, _ := cmd.Flags().GetBool("cut")
			slot, _ := cmd.Flags().GetString("slot")

			logger.DebugContext(cmd.Context(), "clip copy command invoked", "slot", slot, "path", path, "cut", cut)

			client := config.ClientFromContext(cmd.Context())
			defer client.Close()
			return client.ClipboardCopy(cmd.Context(), &api.ClipboardCopyArgs{Slot: slot, Path: path, Cut: cut})
		},
	}
	cmd.Flags().Bool("cut", false, "Move on paste instead of copying")
	return cmd
}

func newPasteCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "paste <dir>",
		Short:        "Paste the clipboard slot into a directory",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFrom(cmd)
			if err != nil {
				return err
			}
			dir, err := singlePath(args)
			if err != nil {
				return err
			}
			slot, _ := cmd.Flags().GetString("slot")

			logger.DebugContext(cmd.Context(), "clip paste command invoked", "slot", slot, "dir", dir)

			client := config.ClientFromContext(cmd.Context())
			defer client.Close()
			reply, err := client.ClipboardPaste(cmd.Context(), &api.ClipboardPasteArgs{Slot: slot, DestDir: dir})
			if err != nil {
				return err
			}
			verb := "copied"
			if reply.Cut {
				verb = "moved"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s to %s\n", verb, reply.Dest)
			return nil
		},
	}
}

func loggerFrom(cmd *cobra.Command) (*slog.Logger, error) {
	logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return nil, errdefs.ErrLoggerNotFound
	}
	return logger, nil
}

// singlePath returns the one path argument made absolute, since warpd
// resolves paths from its own working directory.
func singlePath(args []string) (string, error) {
	switch {
	case len(args) == 0:
		return "", fmt.Errorf("%w: a path is required", errdefs.ErrInvalidArgument)
	case len(args) > 1:
		return "", errdefs.ErrTooManyArguments
	}
	return filepath.Abs(args[0])
}
