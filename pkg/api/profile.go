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

package api

// apiVersion: warp/v1
// kind: SessionProfile

type (
	Version string
	Kind    string
)

const (
	APIVersionV1       Version = "warp/v1"
	KindSessionProfile Kind    = "SessionProfile"
)

// SessionProfileDoc models one YAML (or TOML) document describing a named
// session preset.
type SessionProfileDoc struct {
	APIVersion Version                `json:"apiVersion" yaml:"apiVersion" toml:"apiVersion"`
	Kind       Kind                   `json:"kind"       yaml:"kind"       toml:"kind"`
	Metadata   SessionProfileMetadata `json:"metadata"   yaml:"metadata"   toml:"metadata"`
	Spec       SessionProfileSpec     `json:"spec"       yaml:"spec"       toml:"spec"`
}

type SessionProfileMetadata struct {
	Name   string            `json:"name"             yaml:"name"             toml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty" toml:"labels,omitempty"`
}

type SessionProfileSpec struct {
	Shell string            `json:"shell,omitempty" yaml:"shell,omitempty" toml:"shell,omitempty"`
	Args  []string          `json:"args,omitempty"  yaml:"args,omitempty"  toml:"args,omitempty"`
	Cwd   string            `json:"cwd,omitempty"   yaml:"cwd,omitempty"   toml:"cwd,omitempty"`
	Env   map[string]string `json:"env,omitempty"   yaml:"env,omitempty"   toml:"env,omitempty"`
	Rows  uint16            `json:"rows,omitempty"  yaml:"rows,omitempty"  toml:"rows,omitempty"`
	Cols  uint16            `json:"cols,omitempty"  yaml:"cols,omitempty"  toml:"cols,omitempty"`
}

type ProfilesReply struct {
	Profiles []SessionProfileDoc `json:"profiles"`
}
