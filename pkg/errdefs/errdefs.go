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

// Package errdefs holds the sentinel errors shared by the session manager,
// the daemon and the clients.
package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Session manager.
	ErrSpawn               = errors.New("could not spawn session")
	ErrNotFound            = errors.New("session not found")
	ErrSessionClosed       = errors.New("session has exited")
	ErrDeliveryDecode      = errors.New("output chunk is not valid UTF-8")
	ErrNoShell             = errors.New("no usable shell found")
	ErrInvalidGeometry     = errors.New("rows and cols must be greater than zero")
	ErrSessionExists       = errors.New("session id already exists in table")
	ErrUnsupportedPlatform = errors.New("pty sessions are not supported on this platform")
	ErrManagerClosed       = errors.New("session manager is closed")
	ErrSubscriberOverflow  = errors.New("subscriber fell behind and was dropped")

	// Profiles and clipboard.
	ErrProfileNotFound      = errors.New("profile not found")
	ErrClipboardEmpty       = errors.New("nothing in clipboard")
	ErrClipboardSource      = errors.New("clipboard source path does not exist")
	ErrClipboardDestination = errors.New("clipboard destination is not a directory")

	// Daemon and command plumbing.
	ErrFuncNotSet       = errors.New("function not set")
	ErrContextDone      = errors.New("context has been cancelled")
	ErrWaitOnReady      = errors.New("waiting for readiness has failed")
	ErrWaitOnClose      = errors.New("waiting for close has failed")
	ErrChildExit        = errors.New("child routine exited")
	ErrCloseReq         = errors.New("close requested")
	ErrOnClose          = errors.New("error closing")
	ErrOpenSocketCtrl   = errors.New("could not open ctrl socket")
	ErrStartRPCServer   = errors.New("error starting RPC server")
	ErrRPCServerExited  = errors.New("RPC Server exited with error")
	ErrStartHTTPServer  = errors.New("error starting HTTP server")
	ErrHTTPServerExited = errors.New("HTTP server exited with error")
	ErrWriteMetadata    = errors.New("could not write metadata file")
	ErrDaemonNotRunning = errors.New("warpd is not running")
	ErrConfig           = errors.New("config error")
	ErrLoggerNotFound   = errors.New("logger not found in context")
	ErrInvalidFlag      = errors.New("invalid flag usage")
	ErrInvalidArgument  = errors.New("invalid positional argument")

	// CLI.
	ErrTooManyArguments    = errors.New("too many arguments")
	ErrNoSessionIdentifier = errors.New("no session id provided")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrAttach              = errors.New("error attaching to session")
	ErrNoHTTPEndpoint      = errors.New("warpd has no HTTP endpoint")
)

// wireErrors lists the sentinels that may come back as plain text from the
// JSON-RPC server.
//
//nolint:gochecknoglobals // lookup table
var wireErrors = []error{
	ErrSpawn,
	ErrNotFound,
	ErrSessionClosed,
	ErrNoShell,
	ErrInvalidGeometry,
	ErrSessionExists,
	ErrUnsupportedPlatform,
	ErrManagerClosed,
	ErrProfileNotFound,
	ErrClipboardEmpty,
	ErrClipboardSource,
	ErrClipboardDestination,
}

// FromMessage restores the sentinel carried in an error that crossed a
// transport as text, so errors.Is keeps working in clients. Errors that
// carry no known sentinel are returned unchanged.
func FromMessage(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range wireErrors {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	msg := err.Error()
	for _, sentinel := range wireErrors {
		if strings.Contains(msg, sentinel.Error()) {
			return fmt.Errorf("%w: %s", sentinel, msg)
		}
	}
	return err
}
