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
	"time"
)

type EventType int

const (
	EvOutput      EventType = iota // decoded terminal output
	EvDecodeError                  // chunk was not valid UTF-8; Raw holds the bytes
	EvError                        // stream error; the session keeps draining until exit
	EvEnded                        // terminal event, emitted exactly once per session
)

func (t EventType) String() string {
	switch t {
	case EvOutput:
		return "output"
	case EvDecodeError:
		return "decode_error"
	case EvError:
		return "error"
	case EvEnded:
		return "ended"
	default:
		return "unknown"
	}
}

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EventType) UnmarshalText(b []byte) error {
	for et := EvOutput; et <= EvEnded; et++ {
		if et.String() == string(b) {
			*t = et
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", string(b))
}

// Event is one item of a session's output stream. Seq increases by one per
// event within a session, so consumers can drop duplicates.
type Event struct {
	SessionID SessionID `json:"sessionId"`
	Type      EventType `json:"type"`
	Seq       uint64    `json:"seq"`
	Data      string    `json:"data,omitempty"`
	Raw       []byte    `json:"raw,omitempty"`
	Charset   string    `json:"charset,omitempty"`
	ExitCode  int       `json:"exitCode,omitempty"`
	Killed    bool      `json:"killed,omitempty"`
	Err       string    `json:"error,omitempty"`
	When      time.Time `json:"when"`
}

// ClientFrame is sent by event stream clients to drive the session they
// are attached to.
type ClientFrame struct {
	Type     string    `json:"type"` // "input", "resize" or "ping"
	Data     string    `json:"data,omitempty"`
	Geometry *Geometry `json:"geometry,omitempty"`
}

const (
	FrameInput  = "input"
	FrameResize = "resize"
	FramePing   = "ping"
)
