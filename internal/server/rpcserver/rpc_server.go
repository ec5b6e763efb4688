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

package rpcserver

import (
	"context"

	"github.com/patrickjquinn/project-warp/pkg/api"
)

// Recorder counts calls per method; *monitoring.Metrics satisfies it.
type Recorder interface {
	RecordRPC(method string, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordRPC(string, error) {}

// WarpControllerRPC adapts api.WarpController to the net/rpc calling
// convention. Ctx bounds the calls that block, such as Kill.
type WarpControllerRPC struct {
	Core     api.WarpController
	Ctx      context.Context
	Recorder Recorder
}

func (s *WarpControllerRPC) ctx() context.Context {
	if s.Ctx != nil {
		return s.Ctx
	}
	return context.Background()
}

func (s *WarpControllerRPC) record(method string, err error) error {
	if s.Recorder != nil {
		s.Recorder.RecordRPC(method, err)
	}
	return err
}

func (s *WarpControllerRPC) Ping(in *api.PingMessage, out *api.PingMessage) error {
	pong, err := s.Core.Ping(in)
	if err != nil {
		return s.record("Ping", err)
	}
	*out = *pong
	return s.record("Ping", nil)
}

func (s *WarpControllerRPC) Create(req api.CreateRequest, reply *api.CreateReply) error {
	id, err := s.Core.Create(s.ctx(), req)
	if err != nil {
		return s.record("Create", err)
	}
	reply.ID = id
	return s.record("Create", nil)
}

func (s *WarpControllerRPC) Write(args api.WriteArgs, _ *api.Empty) error {
	return s.record("Write", s.Core.Write(args.ID, args.Data))
}

func (s *WarpControllerRPC) Resize(args api.ResizeArgs, _ *api.Empty) error {
	return s.record("Resize", s.Core.Resize(args.ID, args.Geometry))
}

func (s *WarpControllerRPC) Kill(args api.SessionIDArgs, _ *api.Empty) error {
	return s.record("Kill", s.Core.Kill(s.ctx(), args.ID))
}

func (s *WarpControllerRPC) Get(args api.SessionIDArgs, info *api.SessionInfo) error {
	got, err := s.Core.Get(args.ID)
	if err != nil {
		return s.record("Get", err)
	}
	*info = got
	return s.record("Get", nil)
}

func (s *WarpControllerRPC) List(_ api.Empty, reply *api.SessionListReply) error {
	reply.Sessions = s.Core.List()
	return s.record("List", nil)
}

func (s *WarpControllerRPC) Profiles(_ api.Empty, reply *api.ProfilesReply) error {
	reply.Profiles = s.Core.Profiles()
	return s.record("Profiles", nil)
}

func (s *WarpControllerRPC) ClipboardCopy(args api.ClipboardCopyArgs, _ *api.Empty) error {
	return s.record("ClipboardCopy", s.Core.ClipboardCopy(s.ctx(), args))
}

func (s *WarpControllerRPC) ClipboardPaste(args api.ClipboardPasteArgs, reply *api.ClipboardPasteReply) error {
	got, err := s.Core.ClipboardPaste(s.ctx(), args)
	if err != nil {
		return s.record("ClipboardPaste", err)
	}
	*reply = got
	return s.record("ClipboardPaste", nil)
}
