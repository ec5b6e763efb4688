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

package profile

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/patrickjquinn/project-warp/pkg/api"
)

// PrintTable renders a compact table of profiles.
func PrintTable(w io.Writer, profiles []api.SessionProfileDoc) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(profiles) == 0 {
		fmt.Fprintln(tw, "no profiles found")
		return tw.Flush()
	}

	fmt.Fprintln(tw, "NAME\tSIZE\tENVVARS\tCWD\tCMD")
	for _, p := range profiles {
		cmd := p.Spec.Shell
		if cmd == "" {
			cmd = "(default shell)"
		}
		if args := strings.Join(p.Spec.Args, " "); args != "" {
			cmd = cmd + " " + args
		}
		size := "-"
		if p.Spec.Rows > 0 {
			size = api.Geometry{Rows: p.Spec.Rows, Cols: p.Spec.Cols}.String()
		}
		cwd := p.Spec.Cwd
		if cwd == "" {
			cwd = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d vars\t%s\t%s\n", p.Metadata.Name, size, len(p.Spec.Env), cwd, cmd)
	}
	return tw.Flush()
}
