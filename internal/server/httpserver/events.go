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

package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/patrickjquinn/project-warp/internal/eventhub"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 32 * 1024,
	// the CORS middleware has already vetted browser origins
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) writeControl(kind int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(kind, data, time.Now().Add(writeWait))
}

type wsNotice struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// events streams session events over a websocket. Query parameters:
// session (an id, or absent for all sessions) and replay (bool). Clients
// may send input and resize frames, which apply to the filtered session.
func (s *Server) events(c *gin.Context) {
	var session api.SessionID
	if raw := c.Query("session"); raw != "" {
		id, err := api.ParseSessionID(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		if _, errGet := s.core.Get(id); errGet != nil {
			abort(c, errGet)
			return
		}
		session = id
	}
	replay, _ := strconv.ParseBool(c.DefaultQuery("replay", "false"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	ws := &wsConn{conn: conn}
	defer conn.Close()

	sub := s.hub.Subscribe(session, replay)
	defer s.hub.Unsubscribe(sub)
	s.logger.InfoContext(c.Request.Context(), "event stream attached",
		"subscriber", sub.ID.String(), "session", session, "replay", replay)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.pushEvents(ws, sub)
	}()

	s.readFrames(ws, session)

	s.hub.Unsubscribe(sub)
	<-writerDone
	s.logger.InfoContext(c.Request.Context(), "event stream detached", "subscriber", sub.ID.String())
}

func (s *Server) pushEvents(ws *wsConn, sub *eventhub.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				reason := "stream closed"
				code := websocket.CloseNormalClosure
				if err := sub.Err(); errors.Is(err, errdefs.ErrSubscriberOverflow) {
					reason = err.Error()
					code = websocket.CloseTryAgainLater
				}
				_ = ws.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
				_ = ws.conn.Close()
				return
			}
			if err := ws.writeJSON(ev); err != nil {
				_ = ws.conn.Close()
				return
			}
			if ev.Type == api.EvEnded && sub.Session != 0 {
				_ = ws.writeControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				_ = ws.conn.Close()
				return
			}
		case <-ticker.C:
			if err := ws.writeControl(websocket.PingMessage, nil); err != nil {
				_ = ws.conn.Close()
				return
			}
		}
	}
}

func (s *Server) readFrames(ws *wsConn, session api.SessionID) {
	conn := ws.conn
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame api.ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var err error
		switch frame.Type {
		case api.FramePing:
			err = ws.writeJSON(wsNotice{Type: "pong"})
			if err != nil {
				return
			}
			continue
		case api.FrameInput:
			if session == 0 {
				err = errdefs.ErrInvalidArgument
				break
			}
			err = s.core.Write(session, []byte(frame.Data))
		case api.FrameResize:
			if session == 0 || frame.Geometry == nil {
				err = errdefs.ErrInvalidArgument
				break
			}
			err = s.core.Resize(session, *frame.Geometry)
		default:
			err = errdefs.ErrInvalidArgument
		}
		if err != nil {
			if errW := ws.writeJSON(wsNotice{Type: "error", Error: err.Error()}); errW != nil {
				return
			}
		}
	}
}
