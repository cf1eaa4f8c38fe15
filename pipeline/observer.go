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
	"time"
)

// Observer is notified as stages run. Callbacks run synchronously on the
// pipeline's goroutine and must not block.
type Observer interface {
	StageStarted(ctx context.Context, index int, stage Stage)
	StageFinished(ctx context.Context, index int, stage Stage, output string, elapsed time.Duration)
	StageFailed(ctx context.Context, index int, stage Stage, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) StageStarted(context.Context, int, Stage) {}
func (NopObserver) StageFinished(context.Context, int, Stage, string, time.Duration) {}
func (NopObserver) StageFailed(context.Context, int, Stage, error) {}
