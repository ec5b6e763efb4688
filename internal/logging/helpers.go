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

package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func ParseLevel(lvl string) slog.Level {
	switch lvl {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a ReformatHandler logger on w together with the level
// variable controlling it.
func NewLogger(w io.Writer, loglevel string) (*slog.Logger, *slog.LevelVar) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(loglevel))
	return slog.New(NewReformatHandler(w, levelVar)), levelVar
}

func NewNoopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// SetupFileLogger opens logfile for appending and stores the logger, its
// level variable, handler and file closer in cmd's context.
func SetupFileLogger(cmd *cobra.Command, logfile string, loglevel string) error {
	if cmd == nil || logfile == "" || loglevel == "" {
		return errors.New("cmd, logfile, and loglevel must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(logfile), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		return err
	}

	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return err
	}

	logger, levelVar := NewLogger(f, loglevel)
	StoreInCommand(cmd, logger, levelVar, f)
	return nil
}

// StoreInCommand attaches logger and its level to cmd's context.
func StoreInCommand(cmd *cobra.Command, logger *slog.Logger, levelVar *slog.LevelVar, closer io.Closer) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, CtxLogger, logger)
	ctx = context.WithValue(ctx, CtxLevelVar, levelVar)
	ctx = context.WithValue(ctx, CtxHandler, logger.Handler())
	if closer != nil {
		ctx = context.WithValue(ctx, CtxCloser, closer)
	}
	cmd.SetContext(ctx)
}

// FromContext returns the logger stored by StoreInCommand, or a no-op one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(CtxLogger).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return NewNoopLogger()
}

func LevelFromContext(ctx context.Context) (*slog.LevelVar, bool) {
	if ctx == nil {
		return nil, false
	}
	lv, ok := ctx.Value(CtxLevelVar).(*slog.LevelVar)
	return lv, ok && lv != nil
}
