// Copyright 2025 Google LLC
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

package pipeline

import "fmt"

// State is the coarse state of a run.
type State string

const (
	StateCreated   State = "CREATED"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// Phase is the position of a run in its state machine. Stage is meaningful
// only while running.
type Phase struct {
	State State
	Stage int
}

func (p Phase) String() string {
	if p.State == StateRunning {
		return fmt.Sprintf("RUNNING(%d)", p.Stage)
	}
	return string(p.State)
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p.State == StateCompleted || p.State == StateFailed
}

func created() Phase { return Phase{State: StateCreated} }
func running(stage int) Phase { return Phase{State: StateRunning, Stage: stage} }
func completed() Phase { return Phase{State: StateCompleted} }
func failed() Phase { return Phase{State: StateFailed} }

// canTransition reports whether from -> to is allowed. Stages only move
// forward, one at a time.
func canTransition(from, to Phase) bool {
	switch from.State {
	case StateCreated:
		return to.State == StateRunning && to.Stage == 0
	case StateRunning:
		switch to.State {
		case StateRunning:
			return to.Stage == from.Stage+1
		case StateCompleted, StateFailed:
			return true
		}
	}
	return false
}
