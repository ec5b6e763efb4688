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

// Package warp is the client of the warpd control socket.
package warp

import (
	"context"

	"github.com/patrickjquinn/project-warp/pkg/api"
)

type Client interface {
	Ping(ctx context.Context, ping *api.PingMessage, pong *api.PingMessage) error
	Create(ctx context.Context, req *api.CreateRequest) (api.SessionID, error)
	Write(ctx context.Context, id api.SessionID, data []byte) error
	Resize(ctx context.Context, id api.SessionID, g api.Geometry) error
	Kill(ctx context.Context, id api.SessionID) error
	Get(ctx context.Context, id api.SessionID) (*api.SessionInfo, error)
	List(ctx context.Context) ([]api.SessionInfo, error)
	Profiles(ctx context.Context) ([]api.SessionProfileDoc, error)
	ClipboardCopy(ctx context.Context, args *api.ClipboardCopyArgs) error
	ClipboardPaste(ctx context.Context, args *api.ClipboardPasteArgs) (*api.ClipboardPasteReply, error)
	Close() error
}
