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

package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/patrickjquinn/project-warp/pkg/ptymgr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ptymgr.Observer = (*Metrics)(nil)

func TestObserver(t *testing.T) {
	m := New()

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded(false)
	m.SessionEnded(true)
	m.SessionRemoved()
	m.SpawnFailed()
	m.BytesIn(5)
	m.BytesOut(7)
	m.BytesOut(3)
	m.DecodeError()

	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsActive), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.SessionsCreated), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("killed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("exited")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SpawnFailures), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.InputBytes), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.OutputBytes), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DecodeErrors), 0)
}

func TestRecordRPC(t *testing.T) {
	m := New()
	m.RecordRPC("Create", nil)
	m.RecordRPC("Create", errors.New("boom"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.RPCCalls.WithLabelValues("Create", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RPCCalls.WithLabelValues("Create", "error")), 0)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/sessions/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.InDelta(t, 3, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/sessions/:id", "404")), 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "warp_http_requests_total")
	assert.Contains(t, body, "warp_uptime_seconds")
}
