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

// Package types holds the context keys shared by the warp and warpd
// command trees.
package types

import "github.com/patrickjquinn/project-warp/internal/logging"

type ctxKey string

const (
	CtxLogger   = logging.CtxLogger
	CtxLevelVar = logging.CtxLevelVar
	CtxCloser   = logging.CtxCloser

	// CtxClient carries a ready warp.Client; commands dial the daemon
	// themselves when it is absent.
	CtxClient = ctxKey("client")
)
