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
	"io"

	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
)

func NewWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <id> <text|->",
		Short: "Send input to a session",
		Long: `Send text to the terminal of a session. Use - to read the input from
stdin. With --newline a line feed is appended, which submits a command line.`,
		Example: `  warp session write 4242 "make test" --newline
  printf 'exit\n' | warp session write 4242 -`,
		SilenceUsage:      true,
		RunE:              runWrite,
		ValidArgsFunction: completeSessionIDs,
	}
	cmd.Flags().BoolP("newline", "n", false, "Append a newline to the input")
	return cmd
}

func runWrite(cmd *cobra.Command, args []string) error {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return err
	}
	id, err := sessionArg(args, 2)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: missing input text", errdefs.ErrInvalidArgument)
	}

	var data []byte
	if args[1] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("%w: %w", errdefs.ErrInvalidArgument, err)
		}
		if len(data) == 0 {
			return fmt.Errorf("%w: stdin is empty", errdefs.ErrInvalidArgument)
		}
	} else {
		data = []byte(args[1])
	}
	if nl, _ := cmd.Flags().GetBool("newline"); nl {
		data = append(data, '\n')
	}

	logger.DebugContext(cmd.Context(), "session write command invoked", "id", id, "bytes", len(data))

	client := config.ClientFromContext(cmd.Context())
	defer client.Close()
	return client.Write(cmd.Context(), id, data)
}
