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

	"github.com/gin-gonic/gin"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type inputBody struct {
	Data string `json:"data"`
}

type copyBody struct {
	Path string `json:"path" binding:"required"`
	Cut  bool   `json:"cut"`
}

type pasteBody struct {
	DestDir string `json:"destDir" binding:"required"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errdefs.ErrNotFound), errors.Is(err, errdefs.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, errdefs.ErrSessionClosed), errors.Is(err, errdefs.ErrClipboardEmpty):
		return http.StatusConflict
	case errors.Is(err, errdefs.ErrInvalidGeometry),
		errors.Is(err, errdefs.ErrInvalidArgument),
		errors.Is(err, errdefs.ErrClipboardSource),
		errors.Is(err, errdefs.ErrClipboardDestination):
		return http.StatusBadRequest
	case errors.Is(err, errdefs.ErrManagerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func sessionID(c *gin.Context) (api.SessionID, bool) {
	id, err := api.ParseSessionID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return id, true
}

func (s *Server) health(c *gin.Context) {
	pong, err := s.core.Ping(&api.PingMessage{Message: "PING"})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ping": pong.Message, "sessions": len(s.core.List())})
}

func (s *Server) createSession(c *gin.Context) {
	var req api.CreateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	id, err := s.core.Create(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.CreateReply{ID: id})
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, api.SessionListReply{Sessions: s.core.List()})
}

func (s *Server) getSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	info, err := s.core.Get(id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) writeSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var body inputBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.core.Write(id, []byte(body.Data)); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) resizeSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var g api.Geometry
	if err := c.ShouldBindJSON(&g); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.core.Resize(id, g); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) killSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := s.core.Kill(c.Request.Context(), id); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clipboardCopy(c *gin.Context) {
	var body copyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	args := api.ClipboardCopyArgs{Slot: c.Param("slot"), Path: body.Path, Cut: body.Cut}
	if err := s.core.ClipboardCopy(c.Request.Context(), args); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clipboardPaste(c *gin.Context) {
	var body pasteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := s.core.ClipboardPaste(c.Request.Context(), api.ClipboardPasteArgs{
		Slot:    c.Param("slot"),
		DestDir: body.DestDir,
	})
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) listProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, api.ProfilesReply{Profiles: s.core.Profiles()})
}
