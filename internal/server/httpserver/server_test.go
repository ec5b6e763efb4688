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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickjquinn/project-warp/internal/core"
	"github.com/patrickjquinn/project-warp/internal/eventhub"
	"github.com/patrickjquinn/project-warp/internal/monitoring"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, fake *core.CoreTest, cfg Config) (*Server, *eventhub.Hub) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	hub := eventhub.New(logger)
	t.Cleanup(hub.Close)
	return New(cfg, logger, fake, hub, monitoring.New()), hub
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errdefs.ErrNotFound, http.StatusNotFound},
		{errdefs.ErrSessionClosed, http.StatusConflict},
		{errdefs.ErrInvalidGeometry, http.StatusBadRequest},
		{errdefs.ErrManagerClosed, http.StatusServiceUnavailable},
		{errdefs.ErrSpawn, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v): expected '%d'; got: '%d'", tt.err, tt.want, got)
		}
	}
}

func TestSessionRoutes(t *testing.T) {
	var (
		mu      sync.Mutex
		written []byte
		resized api.Geometry
	)
	fake := &core.CoreTest{
		PingFunc: func(*api.PingMessage) (*api.PingMessage, error) { return &api.PingMessage{Message: "PONG"}, nil },
		CreateFunc: func(_ context.Context, req api.CreateRequest) (api.SessionID, error) {
			if req.Geometry.Rows == 0 {
				return 0, errdefs.ErrInvalidGeometry
			}
			return 77, nil
		},
		GetFunc: func(id api.SessionID) (api.SessionInfo, error) {
			if id != 77 {
				return api.SessionInfo{}, errdefs.ErrNotFound
			}
			return api.SessionInfo{ID: 77, State: api.Running}, nil
		},
		ListFunc: func() []api.SessionInfo { return []api.SessionInfo{{ID: 77}} },
		WriteFunc: func(_ api.SessionID, data []byte) error {
			mu.Lock()
			written = append(written, data...)
			mu.Unlock()
			return nil
		},
		ResizeFunc: func(_ api.SessionID, g api.Geometry) error {
			resized = g
			return nil
		},
		KillFunc: func(_ context.Context, id api.SessionID) error {
			if id != 77 {
				return errdefs.ErrNotFound
			}
			return nil
		},
	}
	s, _ := newTestServer(t, fake, DefaultConfig())
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/sessions", `{"geometry":{"rows":30,"cols":100}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var reply api.CreateReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, api.SessionID(77), reply.ID)

	w = do(t, h, http.MethodPost, "/sessions", `{"shell":"/bin/sh"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/sessions/77", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"Running"`)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/sessions/abc", "").Code)

	w = do(t, h, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":77`)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/sessions/77/input", `{"data":"ls\n"}`).Code)
	mu.Lock()
	assert.Equal(t, "ls\n", string(written))
	mu.Unlock()

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/sessions/77/resize", `{"rows":40,"cols":120}`).Code)
	assert.Equal(t, api.Geometry{Rows: 40, Cols: 120}, resized)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/sessions/77", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/sessions/78", "").Code)

	w = do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `warp_http_requests_total`)
}

func TestCreateRateLimited(t *testing.T) {
	fake := &core.CoreTest{
		CreateFunc: func(context.Context, api.CreateRequest) (api.SessionID, error) { return 1, nil },
	}
	cfg := DefaultConfig()
	cfg.CreateRate = 0.001
	cfg.CreateBurst = 2
	s, _ := newTestServer(t, fake, cfg)
	h := s.Handler()

	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", "").Code)
	assert.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/sessions", "").Code)
}

func TestClipboardAndProfiles(t *testing.T) {
	fake := &core.CoreTest{
		ClipboardCopyFunc: func(_ context.Context, args api.ClipboardCopyArgs) error {
			if args.Slot != "work" || args.Path != "/a" || !args.Cut {
				return errdefs.ErrClipboardSource
			}
			return nil
		},
		ClipboardPasteFunc: func(_ context.Context, args api.ClipboardPasteArgs) (api.ClipboardPasteReply, error) {
			if args.Slot == "empty" {
				return api.ClipboardPasteReply{}, errdefs.ErrClipboardEmpty
			}
			return api.ClipboardPasteReply{Dest: args.DestDir + "/a", Cut: true}, nil
		},
		ProfilesFunc: func() []api.SessionProfileDoc {
			return []api.SessionProfileDoc{{Metadata: api.SessionProfileMetadata{Name: "dev"}}}
		},
	}
	s, _ := newTestServer(t, fake, DefaultConfig())
	h := s.Handler()

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/clipboard/work/copy", `{"path":"/a","cut":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/clipboard/work/copy", `{"path":"/b"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/clipboard/work/copy", `{}`).Code)

	w := do(t, h, http.MethodPost, "/clipboard/work/paste", `{"destDir":"/tmp"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dest":"/tmp/a"`)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/clipboard/empty/paste", `{"destDir":"/tmp"}`).Code)

	w = do(t, h, http.MethodGet, "/profiles", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"dev"`)
}

func dialEvents(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestEvents_ReplayLiveAndFrames(t *testing.T) {
	var (
		mu      sync.Mutex
		written bytes.Buffer
		resized api.Geometry
	)
	fake := &core.CoreTest{
		GetFunc: func(id api.SessionID) (api.SessionInfo, error) { return api.SessionInfo{ID: id}, nil },
		WriteFunc: func(_ api.SessionID, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			written.Write(data)
			return nil
		},
		ResizeFunc: func(_ api.SessionID, g api.Geometry) error {
			mu.Lock()
			defer mu.Unlock()
			resized = g
			return nil
		},
	}
	s, hub := newTestServer(t, fake, DefaultConfig())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, hub.Deliver(ctx, api.Event{SessionID: 9, Type: api.EvOutput, Seq: 1, Data: "hello "}))

	conn := dialEvents(t, srv, "?session=9&replay=true")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev api.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "hello ", ev.Data)
	assert.Equal(t, uint64(1), ev.Seq)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Deliver(ctx, api.Event{SessionID: 8, Type: api.EvOutput, Seq: 1, Data: "other"}))
	require.NoError(t, hub.Deliver(ctx, api.Event{SessionID: 9, Type: api.EvOutput, Seq: 2, Data: "world"}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "world", ev.Data)

	require.NoError(t, conn.WriteJSON(api.ClientFrame{Type: api.FrameInput, Data: "pwd\n"}))
	require.NoError(t, conn.WriteJSON(api.ClientFrame{Type: api.FrameResize, Geometry: &api.Geometry{Rows: 33, Cols: 99}}))
	require.NoError(t, conn.WriteJSON(api.ClientFrame{Type: api.FramePing}))

	var notice wsNotice
	require.NoError(t, conn.ReadJSON(&notice))
	assert.Equal(t, "pong", notice.Type)

	mu.Lock()
	assert.Equal(t, "pwd\n", written.String())
	assert.Equal(t, api.Geometry{Rows: 33, Cols: 99}, resized)
	mu.Unlock()

	require.NoError(t, hub.Deliver(ctx, api.Event{SessionID: 9, Type: api.EvEnded, Seq: 3, ExitCode: 0}))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, api.EvEnded, ev.Type)

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEvents_ExitedSessionReplaysAndCloses(t *testing.T) {
	fake := &core.CoreTest{
		GetFunc: func(id api.SessionID) (api.SessionInfo, error) {
			return api.SessionInfo{ID: id, State: api.Exited}, nil
		},
	}
	s, hub := newTestServer(t, fake, DefaultConfig())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, hub.Deliver(ctx, api.Event{SessionID: 12, Type: api.EvOutput, Seq: 1, Data: "last words"}))
	require.NoError(t, hub.Deliver(ctx, api.Event{SessionID: 12, Type: api.EvEnded, Seq: 2, ExitCode: 1}))

	conn := dialEvents(t, srv, "?session=12&replay=true")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev api.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "last words", ev.Data)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, api.EvEnded, ev.Type)
	assert.Equal(t, 1, ev.ExitCode)

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected '%v'; got: '%v'", "normal closure", err)
	}
}

func TestEvents_AllSessionsRejectsInput(t *testing.T) {
	s, _ := newTestServer(t, &core.CoreTest{}, DefaultConfig())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialEvents(t, srv, "")
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.WriteJSON(api.ClientFrame{Type: api.FrameInput, Data: "x"}))

	var notice wsNotice
	require.NoError(t, conn.ReadJSON(&notice))
	assert.Equal(t, "error", notice.Type)
	assert.Contains(t, notice.Error, errdefs.ErrInvalidArgument.Error())
}

func TestEvents_UnknownSession(t *testing.T) {
	fake := &core.CoreTest{
		GetFunc: func(api.SessionID) (api.SessionInfo, error) { return api.SessionInfo{}, errdefs.ErrNotFound },
	}
	s, _ := newTestServer(t, fake, DefaultConfig())
	w := do(t, s.Handler(), http.MethodGet, "/events?session=4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
