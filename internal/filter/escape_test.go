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

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetachFilter_Split(t *testing.T) {
	tests := []struct {
		name       string
		pasteAware bool
		chunks     []string
		wantOut    []string
		wantDetach []bool
	}{
		{
			name:       "plain input",
			chunks:     []string{"ls -la\r"},
			wantOut:    []string{"ls -la\r"},
			wantDetach: []bool{false},
		},
		{
			name:       "key ends the stream",
			chunks:     []string{"ab\x1dcd"},
			wantOut:    []string{"ab"},
			wantDetach: []bool{true},
		},
		{
			name:       "key first",
			chunks:     []string{"\x1d"},
			wantOut:    []string{""},
			wantDetach: []bool{true},
		},
		{
			name:       "paste hides the key",
			pasteAware: true,
			chunks:     []string{"\x1b[200~a\x1db\x1b[201~c"},
			wantOut:    []string{"\x1b[200~a\x1db\x1b[201~c"},
			wantDetach: []bool{false},
		},
		{
			name:       "paste spans reads",
			pasteAware: true,
			chunks:     []string{"\x1b[200~x", "\x1dy", "\x1b[201~\x1d"},
			wantOut:    []string{"\x1b[200~x", "\x1dy", "\x1b[201~"},
			wantDetach: []bool{false, false, true},
		},
		{
			name:       "paste markers ignored when not aware",
			chunks:     []string{"\x1b[200~a\x1db"},
			wantOut:    []string{"\x1b[200~a"},
			wantDetach: []bool{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDetachFilter(0, tt.pasteAware)
			for i, chunk := range tt.chunks {
				out, detach := f.Split([]byte(chunk))
				assert.Equal(t, tt.wantOut[i], string(out), "chunk %d", i)
				assert.Equal(t, tt.wantDetach[i], detach, "chunk %d", i)
			}
		})
	}
}

func TestNewDetachFilter_CustomKey(t *testing.T) {
	f := NewDetachFilter(0x01, false)
	out, detach := f.Split([]byte("x\x1dy\x01z"))
	assert.Equal(t, "x\x1dy", string(out))
	assert.True(t, detach)
}
