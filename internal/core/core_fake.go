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

package core

import (
	"context"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type CoreTest struct {
	PingFunc           func(in *api.PingMessage) (*api.PingMessage, error)
	CreateFunc         func(ctx context.Context, req api.CreateRequest) (api.SessionID, error)
	WriteFunc          func(id api.SessionID, data []byte) error
	ResizeFunc         func(id api.SessionID, g api.Geometry) error
	KillFunc           func(ctx context.Context, id api.SessionID) error
	GetFunc            func(id api.SessionID) (api.SessionInfo, error)
	ListFunc           func() []api.SessionInfo
	ProfilesFunc       func() []api.SessionProfileDoc
	ClipboardCopyFunc  func(ctx context.Context, args api.ClipboardCopyArgs) error
	ClipboardPasteFunc func(ctx context.Context, args api.ClipboardPasteArgs) (api.ClipboardPasteReply, error)
}

var _ api.WarpController = (*CoreTest)(nil)

func (f *CoreTest) Ping(in *api.PingMessage) (*api.PingMessage, error) {
	if f.PingFunc != nil {
		return f.PingFunc(in)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (f *CoreTest) Create(ctx context.Context, req api.CreateRequest) (api.SessionID, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, req)
	}
	return 0, errdefs.ErrFuncNotSet
}

func (f *CoreTest) Write(id api.SessionID, data []byte) error {
	if f.WriteFunc != nil {
		return f.WriteFunc(id, data)
	}
	return errdefs.ErrFuncNotSet
}

func (f *CoreTest) Resize(id api.SessionID, g api.Geometry) error {
	if f.ResizeFunc != nil {
		return f.ResizeFunc(id, g)
	}
	return errdefs.ErrFuncNotSet
}

func (f *CoreTest) Kill(ctx context.Context, id api.SessionID) error {
	if f.KillFunc != nil {
		return f.KillFunc(ctx, id)
	}
	return errdefs.ErrFuncNotSet
}

func (f *CoreTest) Get(id api.SessionID) (api.SessionInfo, error) {
	if f.GetFunc != nil {
		return f.GetFunc(id)
	}
	return api.SessionInfo{}, errdefs.ErrFuncNotSet
}

func (f *CoreTest) List() []api.SessionInfo {
	if f.ListFunc != nil {
		return f.ListFunc()
	}
	return nil
}

func (f *CoreTest) Profiles() []api.SessionProfileDoc {
	if f.ProfilesFunc != nil {
		return f.ProfilesFunc()
	}
	return nil
}

func (f *CoreTest) ClipboardCopy(ctx context.Context, args api.ClipboardCopyArgs) error {
	if f.ClipboardCopyFunc != nil {
		return f.ClipboardCopyFunc(ctx, args)
	}
	return errdefs.ErrFuncNotSet
}

func (f *CoreTest) ClipboardPaste(ctx context.Context, args api.ClipboardPasteArgs) (api.ClipboardPasteReply, error) {
	if f.ClipboardPasteFunc != nil {
		return f.ClipboardPasteFunc(ctx, args)
	}
	return api.ClipboardPasteReply{}, errdefs.ErrFuncNotSet
}
