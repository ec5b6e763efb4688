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

// Package core binds the session manager, the clipboard and the profile
// store behind api.WarpController.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/patrickjquinn/project-warp/internal/clipboard"
	"github.com/patrickjquinn/project-warp/internal/profile"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/patrickjquinn/project-warp/pkg/ptymgr"
)

type Core struct {
	logger   *slog.Logger
	manager  *ptymgr.Manager
	clip     *clipboard.Clipboard
	profiles *profile.Store
}

var _ api.WarpController = (*Core)(nil)

// New returns a Core; clip and profiles may be nil.
func New(logger *slog.Logger, m *ptymgr.Manager, clip *clipboard.Clipboard, profiles *profile.Store) *Core {
	return &Core{logger: logger, manager: m, clip: clip, profiles: profiles}
}

func (c *Core) Ping(in *api.PingMessage) (*api.PingMessage, error) {
	if in != nil && in.Message == "PING" {
		return &api.PingMessage{Message: "PONG"}, nil
	}
	return &api.PingMessage{}, fmt.Errorf("%w: unexpected ping message", errdefs.ErrInvalidArgument)
}

func (c *Core) Create(ctx context.Context, req api.CreateRequest) (api.SessionID, error) {
	id, err := c.manager.CreateSession(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "create session failed", "shell", req.Shell, "profile", req.Profile, "err", err)
		return 0, err
	}
	return id, nil
}

func (c *Core) Write(id api.SessionID, data []byte) error { return c.manager.Write(id, data) }

func (c *Core) Resize(id api.SessionID, g api.Geometry) error { return c.manager.Resize(id, g) }

func (c *Core) Kill(ctx context.Context, id api.SessionID) error { return c.manager.Kill(ctx, id) }

func (c *Core) Get(id api.SessionID) (api.SessionInfo, error) { return c.manager.Get(id) }

func (c *Core) List() []api.SessionInfo { return c.manager.List() }

func (c *Core) Profiles() []api.SessionProfileDoc {
	if c.profiles == nil {
		return nil
	}
	return c.profiles.List()
}

func (c *Core) ClipboardCopy(ctx context.Context, args api.ClipboardCopyArgs) error {
	if c.clip == nil {
		return errdefs.ErrClipboardEmpty
	}
	return c.clip.Copy(ctx, args.Slot, args.Path, args.Cut)
}

func (c *Core) ClipboardPaste(ctx context.Context, args api.ClipboardPasteArgs) (api.ClipboardPasteReply, error) {
	if c.clip == nil {
		return api.ClipboardPasteReply{}, errdefs.ErrClipboardEmpty
	}
	return c.clip.Paste(ctx, args.Slot, args.DestDir)
}
