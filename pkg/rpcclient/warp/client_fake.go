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

package warp

import (
	"context"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type ClientTest struct {
	PingFunc           func(ctx context.Context, ping *api.PingMessage, pong *api.PingMessage) error
	CreateFunc         func(ctx context.Context, req *api.CreateRequest) (api.SessionID, error)
	WriteFunc          func(ctx context.Context, id api.SessionID, data []byte) error
	ResizeFunc         func(ctx context.Context, id api.SessionID, g api.Geometry) error
	KillFunc           func(ctx context.Context, id api.SessionID) error
	GetFunc            func(ctx context.Context, id api.SessionID) (*api.SessionInfo, error)
	ListFunc           func(ctx context.Context) ([]api.SessionInfo, error)
	ProfilesFunc       func(ctx context.Context) ([]api.SessionProfileDoc, error)
	ClipboardCopyFunc  func(ctx context.Context, args *api.ClipboardCopyArgs) error
	ClipboardPasteFunc func(ctx context.Context, args *api.ClipboardPasteArgs) (*api.ClipboardPasteReply, error)
}

func (c *ClientTest) Ping(ctx context.Context, ping *api.PingMessage, pong *api.PingMessage) error {
	if c.PingFunc != nil {
		return c.PingFunc(ctx, ping, pong)
	}
	return errdefs.ErrFuncNotSet
}

func (c *ClientTest) Create(ctx context.Context, req *api.CreateRequest) (api.SessionID, error) {
	if c.CreateFunc != nil {
		return c.CreateFunc(ctx, req)
	}
	return 0, errdefs.ErrFuncNotSet
}

func (c *ClientTest) Write(ctx context.Context, id api.SessionID, data []byte) error {
	if c.WriteFunc != nil {
		return c.WriteFunc(ctx, id, data)
	}
	return errdefs.ErrFuncNotSet
}

func (c *ClientTest) Resize(ctx context.Context, id api.SessionID, g api.Geometry) error {
	if c.ResizeFunc != nil {
		return c.ResizeFunc(ctx, id, g)
	}
	return errdefs.ErrFuncNotSet
}

func (c *ClientTest) Kill(ctx context.Context, id api.SessionID) error {
	if c.KillFunc != nil {
		return c.KillFunc(ctx, id)
	}
	return errdefs.ErrFuncNotSet
}

func (c *ClientTest) Get(ctx context.Context, id api.SessionID) (*api.SessionInfo, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, id)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (c *ClientTest) List(ctx context.Context) ([]api.SessionInfo, error) {
	if c.ListFunc != nil {
		return c.ListFunc(ctx)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (c *ClientTest) Profiles(ctx context.Context) ([]api.SessionProfileDoc, error) {
	if c.ProfilesFunc != nil {
		return c.ProfilesFunc(ctx)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (c *ClientTest) ClipboardCopy(ctx context.Context, args *api.ClipboardCopyArgs) error {
	if c.ClipboardCopyFunc != nil {
		return c.ClipboardCopyFunc(ctx, args)
	}
	return errdefs.ErrFuncNotSet
}

func (c *ClientTest) ClipboardPaste(ctx context.Context, args *api.ClipboardPasteArgs) (*api.ClipboardPasteReply, error) {
	if c.ClipboardPasteFunc != nil {
		return c.ClipboardPasteFunc(ctx, args)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (c *ClientTest) Close() error { return nil }
