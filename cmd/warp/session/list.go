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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls", "l"},
		Short:        "List sessions",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runList,
	}
	cmd.Flags().StringP("output", "o", "", "Output format: json|yaml (default: table)")
	cmd.Flags().BoolP("all", "a", false, "Include sessions that already exited")
	registerOutputCompletion(cmd)
	return cmd
}

func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "get <id>",
		Short:             "Show one session",
		SilenceUsage:      true,
		RunE:              runGet,
		ValidArgsFunction: completeSessionIDs,
	}
	cmd.Flags().StringP("output", "o", "", "Output format: json|yaml (default: human-readable)")
	registerOutputCompletion(cmd)
	return cmd
}

func registerOutputCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
		},
	)
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "", "json", "yaml":
		return format, nil
	default:
		return "", fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, format)
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	client := config.ClientFromContext(cmd.Context())
	defer client.Close()

	sessions, err := client.List(cmd.Context())
	if err != nil {
		logger.DebugContext(cmd.Context(), "list failed", "error", err)
		return err
	}
	if !all {
		running := sessions[:0]
		for _, s := range sessions {
			if s.State == api.Running || s.State == api.Spawning {
				running = append(running, s)
			}
		}
		sessions = running
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	logger.DebugContext(cmd.Context(), "session list completed", "count", len(sessions))
	if format != "" {
		return encode(cmd.OutOrStdout(), format, sessions)
	}
	return printSessions(cmd.OutOrStdout(), sessions, time.Now())
}

func runGet(cmd *cobra.Command, args []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}
	id, err := sessionArg(args, 1)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	client := config.ClientFromContext(cmd.Context())
	defer client.Close()

	info, err := client.Get(cmd.Context(), id)
	if err != nil {
		logger.DebugContext(cmd.Context(), "get failed", "id", id, "error", err)
		return err
	}
	if format != "" {
		return encode(cmd.OutOrStdout(), format, info)
	}
	return printSession(cmd.OutOrStdout(), info)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("%w: %s", errdefs.ErrInvalidOutputFormat, format)
}

func exitString(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}

func printSessions(w io.Writer, sessions []api.SessionInfo, now time.Time) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "no sessions found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tSHELL\tSIZE\tAGE\tEXIT")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.State, s.Shell, s.Geometry, now.Sub(s.StartedAt).Truncate(time.Second), exitString(s.ExitCode))
	}
	return tw.Flush()
}

func printSession(w io.Writer, s *api.SessionInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", s.ID)
	fmt.Fprintf(tw, "State:\t%s\n", s.State)
	fmt.Fprintf(tw, "Shell:\t%s\n", s.Shell)
	if len(s.Args) > 0 {
		fmt.Fprintf(tw, "Args:\t%q\n", s.Args)
	}
	if s.Cwd != "" {
		fmt.Fprintf(tw, "Cwd:\t%s\n", s.Cwd)
	}
	fmt.Fprintf(tw, "Size:\t%s\n", s.Geometry)
	fmt.Fprintf(tw, "Started:\t%s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Exit code:\t%s\n", exitString(s.ExitCode))
	return tw.Flush()
}
