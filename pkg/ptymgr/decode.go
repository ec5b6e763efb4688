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
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// chunk is one decoded piece of output. When valid is false, raw holds the
// bytes that failed to decode and charset carries a best-effort guess.
type chunk struct {
	valid   bool
	text    string
	raw     []byte
	charset string
}

// decoder turns PTY reads into UTF-8 text. A rune split across two reads is
// carried over instead of being reported as invalid.
type decoder struct {
	carry    []byte
	detector *chardet.Detector
}

func newDecoder() *decoder {
	return &decoder{detector: chardet.NewTextDetector()}
}

func (d *decoder) feed(p []byte) (chunk, bool) {
	buf := make([]byte, 0, len(d.carry)+len(p))
	buf = append(buf, d.carry...)
	buf = append(buf, p...)

	split := len(buf) - incompleteTail(buf)
	d.carry = append(d.carry[:0], buf[split:]...)
	buf = buf[:split]

	if len(buf) == 0 {
		return chunk{}, false
	}
	if utf8.Valid(buf) {
		return chunk{valid: true, text: string(buf)}, true
	}
	return chunk{raw: buf, charset: d.guess(buf)}, true
}

// flush reports bytes still carried when the stream ends.
func (d *decoder) flush() (chunk, bool) {
	if len(d.carry) == 0 {
		return chunk{}, false
	}
	raw := d.carry
	d.carry = nil
	return chunk{raw: raw, charset: d.guess(raw)}, true
}

func (d *decoder) guess(raw []byte) string {
	res, err := d.detector.DetectBest(raw)
	if err != nil || res == nil {
		return ""
	}
	return res.Charset
}

// incompleteTail returns how many trailing bytes of b form the valid start
// of a rune whose remaining bytes have not arrived yet.
func incompleteTail(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if !utf8.RuneStart(c) {
			continue
		}
		if c < utf8.RuneSelf || utf8.FullRune(b[len(b)-i:]) {
			return 0
		}
		return i
	}
	return 0
}
