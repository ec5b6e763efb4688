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

import (
	"fmt"
	"strconv"
	"time"
)

// SessionID is the OS process id of the session's shell.
type SessionID int

func (id SessionID) String() string { return strconv.Itoa(int(id)) }

// ParseSessionID parses the decimal form produced by String.
func ParseSessionID(s string) (SessionID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid session id %q", s)
	}
	return SessionID(n), nil
}

const (
	DefaultRows = 24
	DefaultCols = 80
)

// Geometry is a terminal size in character cells. Pixel hints may be zero.
type Geometry struct {
	Rows        uint16 `json:"rows"                  yaml:"rows"`
	Cols        uint16 `json:"cols"                  yaml:"cols"`
	PixelWidth  uint16 `json:"pixelWidth,omitempty"  yaml:"pixelWidth,omitempty"`
	PixelHeight uint16 `json:"pixelHeight,omitempty" yaml:"pixelHeight,omitempty"`
}

func (g Geometry) IsZero() bool { return g.Rows == 0 && g.Cols == 0 }

func (g Geometry) Valid() bool { return g.Rows > 0 && g.Cols > 0 }

// OrDefault returns g, or the VT100 24x80 geometry when g is zero.
func (g Geometry) OrDefault() Geometry {
	if g.IsZero() {
		return Geometry{Rows: DefaultRows, Cols: DefaultCols}
	}
	return g
}

func (g Geometry) String() string { return fmt.Sprintf("%dx%d", g.Rows, g.Cols) }

type SessionState int

const (
	Spawning SessionState = iota
	Running
	Exited
	Killed
	Removed
)

func (s SessionState) String() string {
	switch s {
	case Spawning:
		return "Spawning"
	case Running:
		return "Running"
	case Exited:
		return "Exited"
	case Killed:
		return "Killed"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SessionState) UnmarshalText(b []byte) error {
	for st := Spawning; st <= Removed; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", string(b))
}

// CreateRequest describes a session to spawn. Zero fields fall back to the
// profile (when named) and then to the manager defaults.
type CreateRequest struct {
	Shell    string            `json:"shell,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Cwd      string            `json:"cwd,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Profile  string            `json:"profile,omitempty"`
	Geometry Geometry          `json:"geometry"`
}

type CreateReply struct {
	ID SessionID `json:"id"`
}

type SessionInfo struct {
	ID        SessionID    `json:"id"                 yaml:"id"`
	Shell     string       `json:"shell"              yaml:"shell"`
	Args      []string     `json:"args,omitempty"     yaml:"args,omitempty"`
	Cwd       string       `json:"cwd,omitempty"      yaml:"cwd,omitempty"`
	Geometry  Geometry     `json:"geometry"           yaml:"geometry"`
	State     SessionState `json:"state"              yaml:"state"`
	StartedAt time.Time    `json:"startedAt"          yaml:"startedAt"`
	ExitCode  *int         `json:"exitCode,omitempty" yaml:"exitCode,omitempty"`
}

type WriteArgs struct {
	ID   SessionID `json:"id"`
	Data []byte    `json:"data"`
}

type ResizeArgs struct {
	ID       SessionID `json:"id"`
	Geometry Geometry  `json:"geometry"`
}

type SessionIDArgs struct {
	ID SessionID `json:"id"`
}
