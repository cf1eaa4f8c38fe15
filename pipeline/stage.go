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

import (
	"context"
	"fmt"
)

// Capability produces a stage's output from the accumulated context. It is
// typically backed by a language model, optionally with tools.
type Capability interface {
	Run(ctx context.Context, in Context) (string, error)
}

// CapabilityFunc adapts a function to [Capability].
type CapabilityFunc func(ctx context.Context, in Context) (string, error)

func (f CapabilityFunc) Run(ctx context.Context, in Context) (string, error) {
	return f(ctx, in)
}

// Stage binds a role to the capability that performs it. The stage does not
// own the capability.
type Stage struct {
	Name        string
	Description string
	Capability  Capability
}

// Run invokes the stage's capability once. Failures are returned as
// [*StageError].
func (s Stage) Run(ctx context.Context, in Context) (string, error) {
	out, err := s.Capability.Run(ctx, in)
	if err != nil {
		return "", &StageError{Stage: s.Name, Index: len(in.Outputs), Err: err}
	}
	return out, nil
}

// StageError reports the failure of one stage. It halts the pipeline.
type StageError struct {
	Stage string
	// Index is the position of the stage in the pipeline. The acceptance gate
	// has index len(stages).
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Index+1, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
