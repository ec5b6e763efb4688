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

// Package clipboard implements path copy/cut and paste between directories.
// Each named slot holds the last path copied into it.
package clipboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/patrickjquinn/project-warp/internal/table"
	"github.com/patrickjquinn/project-warp/pkg/api"
	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/spf13/afero"
)

type entry struct {
	path string
	cut  bool
	at   time.Time
}

// SystemClipboard receives the text of every copied path.
type SystemClipboard interface {
	WriteAll(text string) error
}

type osClipboard struct{}

func (osClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// OSClipboard mirrors copied paths into the desktop clipboard. It fails on
// hosts without one, which Copy only logs.
func OSClipboard() SystemClipboard {
	if clipboard.Unsupported {
		return nil
	}
	return osClipboard{}
}

type Clipboard struct {
	fs     afero.Fs
	logger *slog.Logger
	system SystemClipboard
	slots  *table.Table[string, *entry]
}

func New(fs afero.Fs, logger *slog.Logger, system SystemClipboard) *Clipboard {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Clipboard{
		fs:     fs,
		logger: logger,
		system: system,
		slots:  table.New[string, *entry](),
	}
}

func slotName(s string) string {
	if s == "" {
		return api.DefaultClipboardSlot
	}
	return s
}

// Copy records path in slot, replacing whatever was there. With cut set the
// next paste moves the path instead of copying it.
func (c *Clipboard) Copy(ctx context.Context, slot, path string, cut bool) error {
	slot = slotName(slot)
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrClipboardSource, err)
	}
	if _, errS := c.fs.Stat(abs); errS != nil {
		return fmt.Errorf("%w: %s", errdefs.ErrClipboardSource, abs)
	}

	c.slots.Put(slot, &entry{path: abs, cut: cut, at: time.Now()})
	c.logger.InfoContext(ctx, "path copied to clipboard", "slot", slot, "path", abs, "cut", cut)

	if c.system != nil {
		if errW := c.system.WriteAll(abs); errW != nil {
			c.logger.WarnContext(ctx, "could not mirror path to system clipboard", "err", errW)
		}
	}
	return nil
}

// Paste places the slot's path inside destDir and returns the new path. A
// cut entry is consumed by exactly one paste; if the move fails it is put
// back unless the slot was reused meanwhile.
func (c *Clipboard) Paste(ctx context.Context, slot, destDir string) (api.ClipboardPasteReply, error) {
	slot = slotName(slot)
	dest, err := filepath.Abs(destDir)
	if err != nil {
		return api.ClipboardPasteReply{}, fmt.Errorf("%w: %w", errdefs.ErrClipboardDestination, err)
	}
	fi, errS := c.fs.Stat(dest)
	if errS != nil || !fi.IsDir() {
		return api.ClipboardPasteReply{}, fmt.Errorf("%w: %s", errdefs.ErrClipboardDestination, dest)
	}

	e, ok := c.slots.Get(slot)
	if !ok {
		return api.ClipboardPasteReply{}, errdefs.ErrClipboardEmpty
	}
	target := filepath.Join(dest, filepath.Base(e.path))
	if within(target, e.path) {
		return api.ClipboardPasteReply{}, fmt.Errorf("%w: %s is %s or inside it",
			errdefs.ErrClipboardDestination, target, e.path)
	}
	if e.cut {
		if _, claimed := c.slots.RemoveIf(slot, func(v *entry) bool { return v == e }); !claimed {
			return api.ClipboardPasteReply{}, errdefs.ErrClipboardEmpty
		}
	}

	errOp := c.place(e, target)
	if errOp != nil {
		if e.cut {
			_ = c.slots.Insert(slot, e, nil)
		}
		c.logger.ErrorContext(ctx, "paste failed", "slot", slot, "source", e.path, "target", target, "err", errOp)
		return api.ClipboardPasteReply{}, errOp
	}

	c.logger.InfoContext(ctx, "path pasted", "slot", slot, "source", e.path, "target", target, "cut", e.cut)
	return api.ClipboardPasteReply{Dest: target, Cut: e.cut}, nil
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (c *Clipboard) place(e *entry, target string) error {
	src, err := c.fs.Stat(e.path)
	if err != nil {
		return fmt.Errorf("%w: %s", errdefs.ErrClipboardSource, e.path)
	}
	if e.cut {
		if errR := c.fs.Rename(e.path, target); errR != nil {
			return fmt.Errorf("move %s: %w", e.path, errR)
		}
		return nil
	}
	if src.IsDir() {
		return c.copyDir(e.path, target)
	}
	return c.copyFile(e.path, target, src.Mode().Perm())
}

func (c *Clipboard) copyDir(src, dst string) error {
	return afero.Walk(c.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, errRel := filepath.Rel(src, path)
		if errRel != nil {
			return errRel
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return c.fs.MkdirAll(target, info.Mode().Perm())
		}
		return c.copyFile(path, target, info.Mode().Perm())
	})
}

func (c *Clipboard) copyFile(src, dst string, perm os.FileMode) error {
	in, err := c.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := c.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, errC := io.Copy(out, in); errC != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, errC)
	}
	return out.Close()
}

// Peek reports the slot's current path.
func (c *Clipboard) Peek(slot string) (string, bool, bool) {
	e, ok := c.slots.Get(slotName(slot))
	if !ok {
		return "", false, false
	}
	return e.path, e.cut, true
}
