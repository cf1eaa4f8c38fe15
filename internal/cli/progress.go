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

package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ivanvanderbyl/researchteam/pipeline"
)

// progress prints one line per stage transition.
type progress struct {
	mu sync.Mutex
	w  io.Writer
}

func newProgress(w io.Writer) *progress { return &progress{w: w} }

func (p *progress) StageStarted(_ context.Context, index int, s pipeline.Stage) {
	p.printf("[%d] %s: working...\n", index+1, s.Name)
}

func (p *progress) StageFinished(_ context.Context, index int, s pipeline.Stage, _ string, elapsed time.Duration) {
	p.printf("[%d] %s: done in %s\n", index+1, s.Name, elapsed.Round(100*time.Millisecond))
}

func (p *progress) StageFailed(_ context.Context, index int, s pipeline.Stage, err error) {
	p.printf("[%d] %s: failed: %v\n", index+1, s.Name, err)
}

func (p *progress) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}
