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

// The methods below let *Metrics serve as the session manager's observer.

func (m *Metrics) SessionStarted() {
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionEnded(killed bool) {
	cause := "exited"
	if killed {
		cause = "killed"
	}
	m.SessionsEnded.WithLabelValues(cause).Inc()
}

func (m *Metrics) SessionRemoved() { m.SessionsActive.Dec() }

func (m *Metrics) SpawnFailed() { m.SpawnFailures.Inc() }

func (m *Metrics) BytesIn(n int) { m.InputBytes.Add(float64(n)) }

func (m *Metrics) BytesOut(n int) { m.OutputBytes.Add(float64(n)) }

func (m *Metrics) DecodeError() { m.DecodeErrors.Inc() }
