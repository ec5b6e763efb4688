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

package warp

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/cmd/warp/attach"
	"github.com/patrickjquinn/project-warp/cmd/warp/clip"
	"github.com/patrickjquinn/project-warp/cmd/warp/profiles"
	"github.com/patrickjquinn/project-warp/cmd/warp/session"
	"github.com/patrickjquinn/project-warp/internal/logging"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
)

// no package-level state to satisfy gochecknoglobals

func NewWarpRootCmd() (*cobra.Command, error) {
	// rootCmd represents the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:   "warp",
		Short: "warp command line tool",
		Long: `warp is a command line tool to drive the sessions of a running warpd.

You can see available options and commands with:
	warp help

Examples:
	warp session create --profile wide
	warp session list
	warp session write 4242 "ls -la" --newline
	warp attach 4242
	warp clip copy ./notes.txt --cut
	warp clip paste ~/archive
	warp profiles list
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(config.ClientVars()); err != nil {
				fmt.Fprintln(os.Stderr, "Config error:", err)
				return err
			}
			// keep a logger injected by the caller
			if l, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger); ok && l != nil {
				if _, has := logging.LevelFromContext(cmd.Context()); has {
					return nil
				}
			}
			logger, levelVar := logging.NewLogger(cmd.ErrOrStderr(), config.LOG_LEVEL.ValueOrDefault())
			logging.StoreInCommand(cmd, logger, levelVar, nil)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	if err := setupRootCmd(rootCmd); err != nil {
		return nil, err
	}
	return rootCmd, nil
}

func setupRootCmd(rootCmd *cobra.Command) error {
	rootCmd.AddCommand(session.NewSessionCmd())
	rootCmd.AddCommand(attach.NewAttachCmd())
	rootCmd.AddCommand(clip.NewClipCmd())
	rootCmd.AddCommand(profiles.NewProfilesCmd())
	rootCmd.AddCommand(newPingCmd())

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.warp/config.yaml)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("run-path", "", "Run path directory")
	pf.String("socket", "", "warpd control socket")
	pf.String("http", "", "warpd HTTP address used by attach")

	for name, v := range map[string]config.Var{
		"config":    config.CONFIG_FILE,
		"log-level": config.LOG_LEVEL,
		"run-path":  config.RUN_PATH,
		"socket":    config.CLIENT_SOCKET,
		"http":      config.CLIENT_HTTP,
	} {
		if err := config.BindFlag(pf, name, v); err != nil {
			return err
		}
	}
	return nil
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ping",
		Short:        "Check that warpd answers on its control socket",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
			if !ok || logger == nil {
				return errdefs.ErrLoggerNotFound
			}
			client := config.ClientFromContext(cmd.Context())
			defer client.Close()

			var pong api.PingMessage
			if err := client.Ping(cmd.Context(), &api.PingMessage{Message: "PING"}, &pong); err != nil {
				logger.DebugContext(cmd.Context(), "ping failed", "error", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pong.Message)
			return nil
		},
	}
}
