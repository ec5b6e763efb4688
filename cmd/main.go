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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/cmd/warp"
	"github.com/patrickjquinn/project-warp/cmd/warpd"
	"github.com/patrickjquinn/project-warp/internal/logging"
	"github.com/spf13/cobra"
)

type rootFactory func() (*cobra.Command, error)

func execRoot(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func runWithFactory(ctx context.Context, factory rootFactory) int {
	root, err := factory()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	root.SetContext(ctx)
	return execRoot(root)
}

func main() {
	logger := logging.NewNoopLogger()
	ctx := context.WithValue(context.Background(), types.CtxLogger, logger)

	// One binary serves both commands; the executable name picks the tree.
	exe := filepath.Base(os.Args[0])

	factories := map[string]rootFactory{
		"warp":  warp.NewWarpRootCmd,
		"warpd": warpd.NewWarpdRootCmd,
	}

	if factory, ok := factories[exe]; ok {
		os.Exit(runWithFactory(ctx, factory))
	}

	// WARP_DEBUG_MODE=warp|warpd picks the tree when the binary has another
	// name, e.g. under a debugger.
	debug := os.Getenv("WARP_DEBUG_MODE")
	if factory, ok := factories[debug]; ok {
		os.Exit(runWithFactory(ctx, factory))
	}

	fmt.Fprintf(os.Stderr, "unknown entry command: %s (link the binary as warp or warpd)\n", exe)
	os.Exit(1)
}
