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
	"strings"

	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [flags] [-- shell-args...]",
		Short: "Start a new session",
		Long: `Start a new shell on a pseudo-terminal inside warpd and print its id.
Arguments after -- are passed to the shell.`,
		Example: `  warp session create
  warp session create --profile wide
  warp session create --shell /bin/bash --cwd /srv --rows 40 --cols 120 -- -l`,
		SilenceUsage: true,
		RunE:         runCreate,
	}

	cmd.Flags().String("shell", "", "Shell to run (default: first available on the daemon)")
	cmd.Flags().String("cwd", "", "Working directory of the shell")
	cmd.Flags().StringP("profile", "p", "", "Session profile to start from")
	cmd.Flags().Uint16("rows", 0, "Terminal rows")
	cmd.Flags().Uint16("cols", 0, "Terminal columns")
	cmd.Flags().StringArrayP("env", "e", nil, "Extra environment variable KEY=VALUE (repeatable)")

	_ = cmd.RegisterFlagCompletionFunc(
		"profile",
		func(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			names, err := config.AutoCompleteListProfileNames(
				cmd.Context(), nil, viper.GetString(config.PROFILES_FILE.ViperKey))
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			out := make([]string, 0, len(names))
			for _, n := range names {
				if strings.HasPrefix(n, toComplete) {
					out = append(out, n)
				}
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		},
	)
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}

	g, err := geometryFlags(cmd)
	if err != nil {
		return err
	}
	envPairs, _ := cmd.Flags().GetStringArray("env")
	env, err := parseEnv(envPairs)
	if err != nil {
		return err
	}

	req := &api.CreateRequest{Args: args, Env: env, Geometry: g}
	req.Shell, _ = cmd.Flags().GetString("shell")
	req.Cwd, _ = cmd.Flags().GetString("cwd")
	req.Profile, _ = cmd.Flags().GetString("profile")

	logger.DebugContext(cmd.Context(), "session create command invoked",
		"shell", req.Shell, "cwd", req.Cwd, "profile", req.Profile,
		"geometry", g.String(), "args", args)

	client := config.ClientFromContext(cmd.Context())
	defer client.Close()

	id, err := client.Create(cmd.Context(), req)
	if err != nil {
		logger.DebugContext(cmd.Context(), "create failed", "error", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil //nolint:nilnil // no extra environment
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: --env %q is not KEY=VALUE", errdefs.ErrInvalidFlag, p)
		}
		env[k] = v
	}
	return env, nil
}
