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

package config

import (
	"os"

	"github.com/spf13/viper"
)

type Var struct {
	Key        string // e.g. "WARP_RUN_PATH"
	ViperKey   string // optional, e.g. "warpd.runPath"
	Default    string // optional
	HasDefault bool
}

func DefineKV(envName, viperKey string, defaultVal ...string) Var {
	v := Var{Key: envName, ViperKey: viperKey}
	if len(defaultVal) > 0 {
		v.Default = defaultVal[0]
		v.HasDefault = true
	}
	return v
}

func Define(envName string, defaultVal ...string) Var {
	return DefineKV(envName, "", defaultVal...)
}

func (v *Var) EnvVar() string               { return v.Key }
func (v *Var) DefaultValue() (string, bool) { return v.Default, v.HasDefault }

// ValueOrDefault defines precedence: viper (if ViperKey set and value present) → OS env → default → "".
func (v *Var) ValueOrDefault() string {
	if v.ViperKey != "" && viper.IsSet(v.ViperKey) {
		if s := viper.GetString(v.ViperKey); s != "" {
			return s
		}
	}
	if val, ok := os.LookupEnv(v.Key); ok {
		return val
	}
	if v.HasDefault {
		return v.Default
	}
	return ""
}

// BindEnv is safe if ViperKey is empty: does nothing.
func (v *Var) BindEnv() error {
	if v.ViperKey == "" {
		return nil
	}
	return viper.BindEnv(v.ViperKey, v.Key)
}

func (v *Var) Set(value string) error {
	return os.Setenv(v.Key, value)
}

// SetDefault registers the default with viper; vars declared with one keep
// it when val is empty.
func (v *Var) SetDefault(val string) {
	if val == "" && v.HasDefault {
		val = v.Default
	}
	v.Default = val
	v.HasDefault = true
	if v.ViperKey != "" {
		viper.SetDefault(v.ViperKey, val)
	}
}

func KV(v Var, value string) string { return v.Key + "=" + value }

// ---- Declare statically (Viper key optional per var) ----.
var (
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	CONFIG_FILE = DefineKV("WARP_CONFIG_FILE", "warp.configFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	RUN_PATH = DefineKV("WARP_RUN_PATH", "warpd.runPath")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_LEVEL = DefineKV("WARP_LOG_LEVEL", "warpd.logLevel", "info")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_FILE = DefineKV("WARP_LOG_FILE", "warpd.logFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	PROFILES_FILE = DefineKV("WARP_PROFILES_FILE", "warpd.profilesFile")

	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	DAEMON_SOCKET = DefineKV("WARPD_SOCKET", "warpd.socket")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	HTTP_LISTEN = DefineKV("WARPD_HTTP_LISTEN", "warpd.http.listen", "127.0.0.1:7780")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	HTTP_ENABLED = DefineKV("WARPD_HTTP_ENABLED", "warpd.http.enabled", "true")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	HTTP_CORS_ORIGINS = DefineKV("WARPD_HTTP_CORS_ORIGINS", "warpd.http.corsOrigins", "*")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	RATE_LIMIT_RPS = DefineKV("WARPD_RATE_LIMIT_RPS", "warpd.rateLimit.rps", "5")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	RATE_LIMIT_BURST = DefineKV("WARPD_RATE_LIMIT_BURST", "warpd.rateLimit.burst", "10")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SHELL_CANDIDATES = DefineKV("WARPD_SHELL", "warpd.shell.candidates")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SHELL_ARGS = DefineKV("WARPD_SHELL_ARGS", "warpd.shell.args")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SESSION_ROWS = DefineKV("WARPD_SESSION_ROWS", "warpd.session.rows", "24")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SESSION_COLS = DefineKV("WARPD_SESSION_COLS", "warpd.session.cols", "80")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	KILL_GRACE = DefineKV("WARPD_KILL_GRACE", "warpd.session.killGrace", "2s")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	RETENTION = DefineKV("WARPD_RETENTION", "warpd.session.retention", "5s")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	REPLAY_BYTES = DefineKV("WARPD_REPLAY_BYTES", "warpd.session.replayBytes", "262144")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SYSTEM_CLIPBOARD = DefineKV("WARPD_SYSTEM_CLIPBOARD", "warpd.clipboard.system", "false")

	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	CLIENT_SOCKET = DefineKV("WARP_SOCKET", "warp.socket")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	CLIENT_HTTP = DefineKV("WARP_HTTP", "warp.http")
)

// DaemonVars are the variables warpd binds to the environment.
func DaemonVars() []*Var {
	return []*Var{
		&RUN_PATH, &LOG_LEVEL, &LOG_FILE, &PROFILES_FILE, &DAEMON_SOCKET,
		&HTTP_LISTEN, &HTTP_ENABLED, &HTTP_CORS_ORIGINS, &RATE_LIMIT_RPS, &RATE_LIMIT_BURST,
		&SHELL_CANDIDATES, &SHELL_ARGS, &SESSION_ROWS, &SESSION_COLS,
		&KILL_GRACE, &RETENTION, &REPLAY_BYTES, &SYSTEM_CLIPBOARD,
	}
}

// ClientVars are the variables warp binds to the environment.
func ClientVars() []*Var {
	return []*Var{&RUN_PATH, &LOG_LEVEL, &PROFILES_FILE, &CLIENT_SOCKET, &CLIENT_HTTP}
}
