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

package attach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickjquinn/project-warp/cmd/config"
	"github.com/patrickjquinn/project-warp/cmd/types"
	"github.com/patrickjquinn/project-warp/internal/filter"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const writeWait = 5 * time.Second

var (
	errSessionEnded = errors.New("session ended")
	errDetached     = errors.New("detached")
)

func NewAttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <id>",
		Short: "Attach the terminal to a session",
		Long: `Attach the current terminal to a session over the warpd WebSocket stream.
Output written before attaching is replayed unless --no-replay is given.
Press Ctrl-] to detach; the session keeps running.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, ok := cmd.Context().Value(types.CtxLogger).(*slog.Logger)
			if !ok || logger == nil {
				return errdefs.ErrLoggerNotFound
			}
			if len(args) == 0 {
				return errdefs.ErrNoSessionIdentifier
			}
			if len(args) > 1 {
				return errdefs.ErrTooManyArguments
			}
			id, err := api.ParseSessionID(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", errdefs.ErrInvalidArgument, err)
			}

			endpoint, err := config.HTTPEndpoint(cmd.Context())
			if err != nil {
				return fmt.Errorf("%w: %w", errdefs.ErrAttach, err)
			}
			noReplay, _ := cmd.Flags().GetBool("no-replay")

			o := options{
				Endpoint: endpoint,
				ID:       id,
				Replay:   !noReplay,
				In:       cmd.InOrStdin(),
				Out:      cmd.OutOrStdout(),
				Fd:       -1,
			}
			if f, ok := o.In.(*os.File); ok {
				o.Fd = int(f.Fd())
			}

			logger.DebugContext(cmd.Context(), "attach command invoked", "id", id, "endpoint", endpoint, "replay", o.Replay)
			return run(cmd.Context(), logger, o)
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			ids, err := config.AutoCompleteListSessionIDs(cmd.Context(), false)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
	}
	cmd.Flags().Bool("no-replay", false, "Do not replay output produced before attaching")
	return cmd
}

type options struct {
	Endpoint string
	ID       api.SessionID
	Replay   bool
	In       io.Reader
	Out      io.Writer
	// Fd is the terminal behind In, or -1.
	Fd int
}

// frameWriter serializes writes; gorilla allows one concurrent writer.
type frameWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *frameWriter) send(f api.ClientFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(f)
}

func (w *frameWriter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "detached")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = w.conn.Close()
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	u := url.URL{Scheme: "ws", Host: o.Endpoint, Path: "/events"}
	q := u.Query()
	q.Set("session", o.ID.String())
	q.Set("replay", strconv.FormatBool(o.Replay))
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: writeWait}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w: %d", errdefs.ErrAttach, errdefs.ErrNotFound, o.ID)
		}
		return fmt.Errorf("%w: %w", errdefs.ErrAttach, err)
	}
	fw := &frameWriter{conn: conn}

	isTerm := o.Fd >= 0 && term.IsTerminal(o.Fd)
	if isTerm {
		state, errRaw := term.MakeRaw(o.Fd)
		if errRaw != nil {
			fw.close()
			return fmt.Errorf("%w: %w", errdefs.ErrAttach, errRaw)
		}
		defer func() { _ = term.Restore(o.Fd, state) }()
		if errSize := sendSize(fw, o.Fd); errSize != nil {
			logger.DebugContext(ctx, "initial resize failed", "error", errSize)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readEvents(logger, conn, o.Out) })
	detach := filter.NewDetachFilter(filter.DefaultDetachKey, true)
	g.Go(func() error { return pumpInput(gctx, fw, detach, readInput(gctx, o.In)) })
	if isTerm {
		g.Go(func() error { return watchResize(gctx, fw, o.Fd) })
	}
	g.Go(func() error {
		<-gctx.Done()
		fw.close()
		return nil
	})

	err = g.Wait()
	if errors.Is(err, errSessionEnded) || errors.Is(err, errDetached) {
		logger.DebugContext(ctx, "attach finished", "reason", err)
		return nil
	}
	return err
}

// readEvents copies session output to out until the session ends.
func readEvents(logger *slog.Logger, conn *websocket.Conn, out io.Writer) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errSessionEnded
			}
			return fmt.Errorf("%w: %w", errdefs.ErrAttach, err)
		}

		var peek struct {
			Type string `json:"type"`
		}
		if err = json.Unmarshal(msg, &peek); err != nil {
			logger.Debug("skipping malformed message", "error", err)
			continue
		}
		if peek.Type == "pong" {
			continue
		}

		var ev api.Event
		if err = json.Unmarshal(msg, &ev); err != nil {
			logger.Debug("skipping unknown message", "type", peek.Type, "error", err)
			continue
		}
		switch ev.Type {
		case api.EvOutput:
			_, err = io.WriteString(out, ev.Data)
		case api.EvDecodeError:
			_, err = out.Write(ev.Raw)
		case api.EvError:
			logger.Warn("session stream error", "error", ev.Err)
		case api.EvEnded:
			how := "exited with code " + strconv.Itoa(ev.ExitCode)
			if ev.Killed {
				how = "was killed"
			}
			fmt.Fprintf(out, "\r\n[warp: session %d %s]\r\n", ev.SessionID, how)
			return errSessionEnded
		}
		if err != nil {
			return err
		}
	}
}

func readInput(ctx context.Context, in io.Reader) <-chan []byte {
	ch := make(chan []byte)
	go func() {
		defer close(ch)
		buf := make([]byte, 4096)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				select {
				case ch <- bytes.Clone(buf[:n]):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// pumpInput forwards keystrokes until the detach key. End of input leaves
// the output stream running.
func pumpInput(ctx context.Context, fw *frameWriter, df *filter.DetachFilter, in <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-in:
			if !ok {
				return nil
			}
			chunk, detach := df.Split(chunk)
			if len(chunk) > 0 {
				if err := fw.send(api.ClientFrame{Type: api.FrameInput, Data: string(chunk)}); err != nil {
					return fmt.Errorf("%w: %w", errdefs.ErrAttach, err)
				}
			}
			if detach {
				return errDetached
			}
		}
	}
}

func sendSize(fw *frameWriter, fd int) error {
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return err
	}
	return fw.send(api.ClientFrame{
		Type:     api.FrameResize,
		Geometry: &api.Geometry{Rows: uint16(rows), Cols: uint16(cols)}, //nolint:gosec // terminal sizes fit
	})
}
