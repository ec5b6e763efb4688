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

// Package api holds the types shared by the warp daemon, its transports and
// its clients.
package api

import "time"

const (
	WarpService = "WarpController"

	WarpMethodPing           = WarpService + ".Ping"
	WarpMethodCreate         = WarpService + ".Create"
	WarpMethodWrite          = WarpService + ".Write"
	WarpMethodResize         = WarpService + ".Resize"
	WarpMethodKill           = WarpService + ".Kill"
	WarpMethodGet            = WarpService + ".Get"
	WarpMethodList           = WarpService + ".List"
	WarpMethodProfiles       = WarpService + ".Profiles"
	WarpMethodClipboardCopy  = WarpService + ".ClipboardCopy"
	WarpMethodClipboardPaste = WarpService + ".ClipboardPaste"
)

type Empty struct{}

type PingMessage struct {
	Message string
}

// DaemonMetadata is written to <run-path>/metadata.json while warpd runs.
type DaemonMetadata struct {
	Pid        int       `json:"pid"`
	Socket     string    `json:"socket"`
	HTTPListen string    `json:"httpListen,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	Version    string    `json:"version,omitempty"`
}
