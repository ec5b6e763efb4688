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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/viper"
)

const homeDirName = ".warp"

func baseDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		// fallback to tmp if home dir cannot be determined
		base = os.TempDir()
	}
	return filepath.Join(base, homeDirName)
}

func DefaultRunPath() string { return filepath.Join(baseDir(), "run") }

func DefaultProfilesFile() string { return filepath.Join(baseDir(), "profiles.yaml") }

func DefaultConfigFile() string { return filepath.Join(baseDir(), "config.yaml") }

// LoadConfig binds vars to the environment, installs their defaults and
// reads the config file named by CONFIG_FILE, or config.yaml under ~/.warp.
// A missing default config file is not an error.
func LoadConfig(vars []*Var) error {
	if configFile := CONFIG_FILE.ValueOrDefault(); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(baseDir())
	}
	_ = CONFIG_FILE.BindEnv()

	RUN_PATH.SetDefault(DefaultRunPath())
	PROFILES_FILE.SetDefault(DefaultProfilesFile())

	for _, v := range vars {
		if err := v.BindEnv(); err != nil {
			return fmt.Errorf("%w: bind %s: %w", errdefs.ErrConfig, v.Key, err)
		}
		if v.HasDefault {
			v.SetDefault("")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// File not found is OK if ENV is set
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("%w: %w", errdefs.ErrConfig, err)
		}
	}
	return nil
}
