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
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlag binds the named flag of fs to v's viper key, so the flag wins
// over the environment and the config file when it is set.
func BindFlag(fs *pflag.FlagSet, name string, v Var) error {
	f := fs.Lookup(name)
	if f == nil {
		return fmt.Errorf("flag %q not defined", name)
	}
	if v.ViperKey == "" {
		return fmt.Errorf("var %s has no viper key", v.Key)
	}
	return viper.BindPFlag(v.ViperKey, f)
}
