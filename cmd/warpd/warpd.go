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

package warpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/internal/daemon"
	"github.com/patrickjquinn/project-warp/internal/logging"
	"github.com/patrickjquinn/project-warp/internal/server/httpserver"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func NewWarpdRootCmd() (*cobra.Command, error) {
	// rootCmd represents the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:   "warpd",
		Short: "warpd terminal session daemon",
		Long: `warpd runs interactive shells on pseudo-terminals and serves them
over a local control socket and an optional HTTP/WebSocket endpoint.

Examples:
  warpd
  warpd --log-level=debug --listen 127.0.0.1:7780
  warpd --no-http --socket /tmp/warpd.sock
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(config.DaemonVars()); err != nil {
				fmt.Fprintln(os.Stderr, "Config error:", err)
				return err
			}
			return setupLogger(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
			if !ok || logger == nil {
				return errdefs.ErrLoggerNotFound
			}

			cfg, err := daemonConfig()
			if err != nil {
				return err
			}
			if noHTTP, _ := cmd.Flags().GetBool("no-http"); noHTTP {
				cfg.HTTPListen = ""
			}

			logger.DebugContext(cmd.Context(), "parameters received in warpd",
				"runPath", cfg.RunPath,
				"socket", cfg.Socket,
				"httpListen", cfg.HTTPListen,
				"profilesFile", cfg.ProfilesFile,
				"shells", cfg.ShellCandidates,
				"geometry", cfg.DefaultGeometry.String(),
				"killGrace", cfg.KillGrace,
				"retention", cfg.Retention,
				"replayBytes", cfg.ReplayBytes,
			)

			if lv, ok := logging.LevelFromContext(cmd.Context()); ok {
				watchConfig(logger, lv)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			ctrl := daemon.NewController(ctx, logger, cfg)

			return runDaemon(ctx, cancel, logger, ctrl)
		},
		PostRunE: func(cmd *cobra.Command, _ []string) error {
			if c, _ := cmd.Context().Value(types.CtxCloser).(io.Closer); c != nil {
				_ = c.Close()
			}
			return nil
		},
	}

	if err := setupRootCmd(rootCmd); err != nil {
		return nil, err
	}
	return rootCmd, nil
}

func setupRootCmd(rootCmd *cobra.Command) error {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.warp/config.yaml)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Log file (default: stderr)")
	pf.String("run-path", "", "Run path directory")

	f := rootCmd.Flags()
	f.String("socket", "", "Control socket (default: <run-path>/warpd.sock)")
	f.String("listen", "", "HTTP/WebSocket listen address")
	f.Bool("no-http", false, "Disable the HTTP/WebSocket endpoint")
	f.String("profiles", "", "Session profiles file (YAML or TOML)")

	for name, v := range map[string]config.Var{
		"config":    config.CONFIG_FILE,
		"log-level": config.LOG_LEVEL,
		"log-file":  config.LOG_FILE,
		"run-path":  config.RUN_PATH,
	} {
		if err := config.BindFlag(pf, name, v); err != nil {
			return err
		}
	}
	for name, v := range map[string]config.Var{
		"socket":   config.DAEMON_SOCKET,
		"listen":   config.HTTP_LISTEN,
		"profiles": config.PROFILES_FILE,
	} {
		if err := config.BindFlag(f, name, v); err != nil {
			return err
		}
	}
	return nil
}

// setupLogger sends logs to the configured file, or to stderr.
func setupLogger(cmd *cobra.Command) error {
	level := config.LOG_LEVEL.ValueOrDefault()
	if logFile := config.LOG_FILE.ValueOrDefault(); logFile != "" {
		return logging.SetupFileLogger(cmd, logFile, level)
	}
	logger, levelVar := logging.NewLogger(os.Stderr, level)
	logging.StoreInCommand(cmd, logger, levelVar, nil)
	return nil
}

func daemonConfig() (daemon.Config, error) {
	rows := viper.GetInt(config.SESSION_ROWS.ViperKey)
	cols := viper.GetInt(config.SESSION_COLS.ViperKey)
	if rows <= 0 || cols <= 0 || rows > 0xffff || cols > 0xffff {
		return daemon.Config{}, fmt.Errorf("%w: session geometry %dx%d", errdefs.ErrInvalidFlag, rows, cols)
	}

	httpCfg := httpserver.DefaultConfig()
	if origins := listValue(config.HTTP_CORS_ORIGINS.ViperKey); len(origins) > 0 {
		httpCfg.AllowOrigins = origins
	}
	httpCfg.CreateRate = viper.GetFloat64(config.RATE_LIMIT_RPS.ViperKey)
	httpCfg.CreateBurst = viper.GetInt(config.RATE_LIMIT_BURST.ViperKey)

	cfg := daemon.Config{
		RunPath:         config.RUN_PATH.ValueOrDefault(),
		Socket:          config.DAEMON_SOCKET.ValueOrDefault(),
		HTTP:            httpCfg,
		ProfilesFile:    config.PROFILES_FILE.ValueOrDefault(),
		WatchProfiles:   true,
		ShellCandidates: listValue(config.SHELL_CANDIDATES.ViperKey),
		ShellArgs:       viper.GetStringSlice(config.SHELL_ARGS.ViperKey),
		DefaultGeometry: api.Geometry{Rows: uint16(rows), Cols: uint16(cols)},
		KillGrace:       viper.GetDuration(config.KILL_GRACE.ViperKey),
		Retention:       viper.GetDuration(config.RETENTION.ViperKey),
		ReplayBytes:     viper.GetInt(config.REPLAY_BYTES.ViperKey),
		SystemClipboard: viper.GetBool(config.SYSTEM_CLIPBOARD.ViperKey),
		Version:         version,
	}
	if viper.GetBool(config.HTTP_ENABLED.ViperKey) {
		cfg.HTTPListen = config.HTTP_LISTEN.ValueOrDefault()
	}
	return cfg, nil
}

// listValue reads a list key; values coming from the environment may be
// separated by commas or spaces.
func listValue(key string) []string {
	var out []string
	for _, v := range viper.GetStringSlice(key) {
		out = append(out, strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' '
		})...)
	}
	return out
}

// watchConfig applies log level changes from the config file while the
// daemon runs.
func watchConfig(logger *slog.Logger, levelVar *slog.LevelVar) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(onConfigChange(logger, levelVar))
	viper.WatchConfig()
}

func onConfigChange(logger *slog.Logger, levelVar *slog.LevelVar) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		lvl := logging.ParseLevel(viper.GetString(config.LOG_LEVEL.ViperKey))
		if levelVar.Level() == lvl {
			return
		}
		levelVar.Set(lvl)
		logger.Info("log level changed", "file", e.Name, "level", lvl.String())
	}
}

func runDaemon(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *slog.Logger,
	ctrl api.DaemonController,
) error {
	defer cancel()

	errCh := make(chan error, 1)

	logger.DebugContext(ctx, "starting daemon controller goroutine")
	go func() {
		errCh <- ctrl.Run()
		close(errCh)
		logger.DebugContext(ctx, "controller goroutine exited")
	}()

	logger.DebugContext(ctx, "waiting for controller to signal ready")
	if err := ctrl.WaitReady(); err != nil {
		logger.DebugContext(ctx, "controller not ready", "error", err)
		return fmt.Errorf("%w: %w", errdefs.ErrWaitOnReady, err)
	}

	logger.InfoContext(ctx, "warpd ready")
	select {
	case <-ctx.Done():
		logger.DebugContext(ctx, "context canceled, waiting for controller to exit")
		if errC := ctrl.WaitClose(); errC != nil {
			return fmt.Errorf("%w: %w", errdefs.ErrWaitOnClose, errC)
		}
		logger.InfoContext(ctx, "warpd stopped")
		return nil

	case err := <-errCh:
		logger.DebugContext(ctx, "controller stopped", "error", err)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errdefs.ErrCloseReq) {
			err = fmt.Errorf("%w: %w", errdefs.ErrChildExit, err)
			if errC := ctrl.WaitClose(); errC != nil {
				err = fmt.Errorf("%w: %w: %w", err, errdefs.ErrWaitOnClose, errC)
			}
			return err
		}
	}
	return nil
}
