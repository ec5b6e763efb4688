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
	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/spf13/cobra"
)

func NewKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "kill <id>",
		Aliases:           []string{"rm", "stop"},
		Short:             "Terminate a session and its process group",
		SilenceUsage:      true,
		RunE:              runKill,
		ValidArgsFunction: completeSessionIDs,
	}
}

func runKill(cmd *cobra.Command, args []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}
	id, err := sessionArg(args, 1)
	if err != nil {
		return err
	}
	logger.DebugContext(cmd.Context(), "session kill command invoked", "id", id)

	client := config.ClientFromContext(cmd.Context())
	defer client.Close()
	return client.Kill(cmd.Context(), id)
}

func completeSessionIDs(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids, err := config.AutoCompleteListSessionIDs(cmd.Context(), false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
