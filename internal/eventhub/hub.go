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

// Package eventhub fans session events out to any number of subscribers
// and keeps a bounded backlog of each session's output for late attachers.
// A session's backlog and its ended event stay until Forget is called.
package eventhub

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

const (
	DefaultReplayBytes = 256 * 1024
	DefaultQueueSize   = 1024
)

// Gauge tracks the number of live subscribers.
type Gauge interface {
	Inc()
	Dec()
}

type Hub struct {
	logger      *slog.Logger
	replayBytes int
	queueSize   int
	gauge       Gauge

	mu   sync.Mutex
	subs map[uuid.UUID]*Subscription
	logs map[api.SessionID]*record
}

// record is what the hub retains about one session.
type record struct {
	log   *backlog
	ended *api.Event
}

type Option func(*Hub)

func WithReplayBytes(n int) Option { return func(h *Hub) { h.replayBytes = n } }

func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

func WithGauge(g Gauge) Option { return func(h *Hub) { h.gauge = g } }

func New(logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger:      logger,
		replayBytes: DefaultReplayBytes,
		queueSize:   DefaultQueueSize,
		subs:        make(map[uuid.UUID]*Subscription),
		logs:        make(map[api.SessionID]*record),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Subscription receives the events of one session, or of all sessions when
// created with id 0.
type Subscription struct {
	ID      uuid.UUID
	Session api.SessionID

	ch   chan api.Event
	done chan struct{}
	err  error
}

func (s *Subscription) Events() <-chan api.Event { return s.ch }

// Done is closed when the subscription ends; Err tells why.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) Err() error {
	<-s.done
	return s.err
}

// Deliver implements ptymgr.Sink. It never blocks: a subscriber whose queue
// is full is dropped with ErrSubscriberOverflow.
func (h *Hub) Deliver(_ context.Context, ev api.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch ev.Type {
	case api.EvOutput:
		if h.replayBytes > 0 {
			r := h.recordLocked(ev.SessionID)
			if r.log == nil {
				r.log = &backlog{max: h.replayBytes}
			}
			r.log.append(ev.Data, ev.Seq)
		}
	case api.EvEnded:
		ended := ev
		h.recordLocked(ev.SessionID).ended = &ended
	case api.EvDecodeError, api.EvError:
	}

	for _, sub := range h.subs {
		if sub.Session != 0 && sub.Session != ev.SessionID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("dropping slow subscriber", "subscriber", sub.ID.String(), "session", sub.Session)
			h.closeLocked(sub, errdefs.ErrSubscriberOverflow)
		}
	}
	return nil
}

func (h *Hub) recordLocked(id api.SessionID) *record {
	r := h.logs[id]
	if r == nil {
		r = &record{}
		h.logs[id] = r
	}
	return r
}

// Forget drops what the hub retains about a session. The session manager
// calls it once the session has left its table and the pump has stopped.
func (h *Hub) Forget(id api.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.logs, id)
}

// Subscribe registers a subscriber. With replay set, the retained output of
// the selected sessions is queued first as one output event per session,
// carrying the sequence number of the last event it contains. Later events
// always have a greater sequence number, so nothing is lost or repeated.
// A session that already ended has its ended event queued after the
// replay; a subscriber of all sessions only gets those with replay set.
func (h *Hub) Subscribe(session api.SessionID, replay bool) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	var backlogs []api.Event
	for id, r := range h.logs {
		if session != 0 && id != session {
			continue
		}
		if replay && r.log != nil {
			if ev, ok := r.log.event(id); ok {
				backlogs = append(backlogs, ev)
			}
		}
		if r.ended != nil && (replay || session != 0) {
			backlogs = append(backlogs, *r.ended)
		}
	}

	sub := &Subscription{
		ID:      uuid.New(),
		Session: session,
		ch:      make(chan api.Event, h.queueSize+len(backlogs)),
		done:    make(chan struct{}),
	}
	for _, ev := range backlogs {
		sub.ch <- ev
	}
	h.subs[sub.ID] = sub
	if h.gauge != nil {
		h.gauge.Inc()
	}
	h.logger.Debug("subscriber added", "subscriber", sub.ID.String(), "session", session, "replayed", len(backlogs))
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked(sub, nil)
}

func (h *Hub) closeLocked(sub *Subscription, err error) {
	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	sub.err = err
	close(sub.ch)
	close(sub.done)
	if h.gauge != nil {
		h.gauge.Dec()
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		h.closeLocked(sub, nil)
	}
}

// backlog keeps the newest max bytes of a session's output.
type backlog struct {
	max     int
	data    []byte
	lastSeq uint64
	when    time.Time
}

func (b *backlog) append(s string, seq uint64) {
	b.data = append(b.data, s...)
	b.lastSeq = seq
	b.when = time.Now()
	if len(b.data) <= b.max {
		return
	}
	cut := len(b.data) - b.max
	for cut < len(b.data) && !utf8.RuneStart(b.data[cut]) {
		cut++
	}
	b.data = append(b.data[:0], b.data[cut:]...)
}

func (b *backlog) event(id api.SessionID) (api.Event, bool) {
	if len(b.data) == 0 {
		return api.Event{}, false
	}
	return api.Event{
		SessionID: id,
		Type:      api.EvOutput,
		Seq:       b.lastSeq,
		Data:      string(b.data),
		When:      b.when,
	}, true
}
