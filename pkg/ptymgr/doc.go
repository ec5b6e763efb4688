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

// Package ptymgr runs interactive shells behind pseudo-terminals and keeps
// them addressable by process id.
//
// Every session owns two goroutines: a waiter that reaps the shell and a
// pump that drains the PTY master into a Sink. The pump is the only reader
// of the master, so the read endpoint needs no lock; writers of the same
// session are serialized by a per-session mutex and never contend with
// other sessions. The session table lock protects the id mapping only and
// is never held during I/O.
//
// Lifecycle: Spawning -> Running -> (Exited | Killed) -> Removed. A session
// that exits on its own stays visible as Exited for the configured
// retention window, rejecting writes with ErrSessionClosed. Kill removes
// the session from the table before signalling it, so every later call for
// that id fails with ErrNotFound.
package ptymgr
