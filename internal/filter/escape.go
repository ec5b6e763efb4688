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

// Package filter finds the detach key in keyboard input headed for a
// session. With PasteAware set, bytes between the bracketed paste markers
// ESC[200~ and ESC[201~ never detach.
package filter

import "bytes"

const DefaultDetachKey = 0x1d // Ctrl+]

//nolint:gochecknoglobals // fixed terminal sequences
var (
	pasteStart = []byte{0x1b, '[', '2', '0', '0', '~'}
	pasteEnd   = []byte{0x1b, '[', '2', '0', '1', '~'}
)

// DetachFilter keeps paste state across reads; use one per input stream.
type DetachFilter struct {
	Key        byte
	PasteAware bool

	pasteMode bool
}

func NewDetachFilter(key byte, pasteAware bool) *DetachFilter {
	if key == 0 {
		key = DefaultDetachKey
	}
	return &DetachFilter{Key: key, PasteAware: pasteAware}
}

// Split returns the prefix of p to forward and whether the detach key
// ended it. Input after the key is dropped.
func (f *DetachFilter) Split(p []byte) ([]byte, bool) {
	i := 0
	for i < len(p) {
		rest := p[i:]
		if f.PasteAware {
			if f.pasteMode {
				j := bytes.Index(rest, pasteEnd)
				if j < 0 {
					return p, false
				}
				f.pasteMode = false
				i += j + len(pasteEnd)
				continue
			}
			start := bytes.Index(rest, pasteStart)
			key := bytes.IndexByte(rest, f.Key)
			if start >= 0 && (key < 0 || start < key) {
				f.pasteMode = true
				i += start + len(pasteStart)
				continue
			}
		}
		key := bytes.IndexByte(rest, f.Key)
		if key < 0 {
			return p, false
		}
		return p[:i+key], true
	}
	return p, false
}
