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

import "errors"

// Task is the unit of work handed to a pipeline.
type Task struct {
	ID             string
	Content        string
	AdditionalInfo string
	// Result is set once, by the pipeline, after the last stage. It may be
	// empty when the final stage produced no text.
	Result string

	done bool
}

// ErrTaskCompleted is returned when executing a task that already has a
// result.
var ErrTaskCompleted = errors.New("pipeline: task already has a result")

// Completed reports whether a pipeline has finished the task, or whether the
// caller handed it over with a result already set.
func (t *Task) Completed() bool {
	return t.done || t.Result != ""
}
