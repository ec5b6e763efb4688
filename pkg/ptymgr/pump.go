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

package ptymgr

import (
	"fmt"
	"time"

	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

const readBufferSize = 32 * 1024

// pump drains the PTY master until the stream ends, then waits for the
// process and emits the session's single ended event.
func (m *Manager) pump(s *session, ready chan<- struct{}) {
	defer close(s.pumpDone)
	close(ready)

	var seq uint64
	emit := func(ev api.Event) {
		seq++
		ev.SessionID = s.id
		ev.Seq = seq
		ev.When = time.Now()
		if err := m.cfg.sink.Deliver(m.ctx, ev); err != nil {
			m.logger.Warn("event delivery failed", "id", s.id, "seq", seq, "type", ev.Type.String(), "err", err)
		}
	}
	emitChunk := func(c chunk) {
		if c.valid {
			emit(api.Event{Type: api.EvOutput, Data: c.text})
			return
		}
		m.cfg.observer.DecodeError()
		m.logger.Debug("dropping undecodable output", "id", s.id, "bytes", len(c.raw), "charset", c.charset)
		emit(api.Event{
			Type:    api.EvDecodeError,
			Raw:     c.raw,
			Charset: c.charset,
			Err:     errdefs.ErrDeliveryDecode.Error(),
		})
	}

	dec := newDecoder()
	buf := make([]byte, readBufferSize)
	for {
		n, errRead := s.pty.Read(buf)
		if n > 0 {
			m.cfg.observer.BytesOut(n)
			if c, ok := dec.feed(buf[:n]); ok {
				emitChunk(c)
			}
		}
		if errRead == nil {
			continue
		}

		st := s.State()
		if endOfStream(errRead) || st == api.Killed || st == api.Removed {
			m.logger.Info("pty output closed", "id", s.id, "state", st.String())
		} else {
			m.logger.Error("pty read error", "id", s.id, "err", errRead)
			emit(api.Event{Type: api.EvError, Err: fmt.Sprintf("pty read: %v", errRead)})
		}
		break
	}

	// Release the read endpoint. If the shell is still running this hangs
	// it up, so the wait below terminates.
	_ = s.pty.Close()
	<-s.exited

	if c, ok := dec.flush(); ok {
		emitChunk(c)
	}

	code, killed := s.ended()
	emit(api.Event{Type: api.EvEnded, ExitCode: code, Killed: killed})
	m.cfg.observer.SessionEnded(killed)
	m.logger.Info("session ended", "id", s.id, "exit_code", code, "killed", killed)

	if killed {
		// already out of the table
		m.forget(s.id)
		return
	}
	m.retire(s)
}
