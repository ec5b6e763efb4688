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

import "context"

// WarpController is the daemon surface shared by the control socket and the
// HTTP server.
type WarpController interface {
	Ping(in *PingMessage) (*PingMessage, error)
	Create(ctx context.Context, req CreateRequest) (SessionID, error)
	Write(id SessionID, data []byte) error
	Resize(id SessionID, g Geometry) error
	Kill(ctx context.Context, id SessionID) error
	Get(id SessionID) (SessionInfo, error)
	List() []SessionInfo
	Profiles() []SessionProfileDoc
	ClipboardCopy(ctx context.Context, args ClipboardCopyArgs) error
	ClipboardPaste(ctx context.Context, args ClipboardPasteArgs) (ClipboardPasteReply, error)
}

type SessionListReply struct {
	Sessions []SessionInfo `json:"sessions"`
}

// DaemonController runs warpd: Run blocks until the daemon stops.
type DaemonController interface {
	Run() error
	WaitReady() error
	WaitClose() error
	Close(reason error) error
}
