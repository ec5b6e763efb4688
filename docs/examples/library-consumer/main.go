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

// Command library-consumer drives a shell through pkg/ptymgr without the
// daemon: it runs one command line and prints what the shell wrote.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/ptymgr"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	events := make(ptymgr.ChannelSink, 64)

	m := ptymgr.New(
		ptymgr.WithLogger(logger),
		ptymgr.WithSink(events),
		ptymgr.WithRetention(0),
	)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Close(ctx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := m.CreateSession(ctx, api.CreateRequest{
		Shell:    "/bin/sh",
		Geometry: api.Geometry{Rows: 24, Cols: 100},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "create:", err)
		os.Exit(1)
	}
	fmt.Printf("session %d started\n", id)

	if err = m.Write(id, []byte("echo hello from $0; exit 7\n")); err != nil {
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}

	for {
		select {
		case ev := <-events:
			switch ev.Type {
			case api.EvOutput:
				fmt.Print(ev.Data)
			case api.EvEnded:
				fmt.Printf("\nsession %d ended with code %d\n", ev.SessionID, ev.ExitCode)
				return
			}
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "timed out")
			return
		}
	}
}
