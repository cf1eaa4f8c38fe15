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

import "strings"

// StageOutput is the text produced by one completed stage.
type StageOutput struct {
	Stage string
	Text  string
}

// Context is the input handed to a stage: the task and the outputs of every
// earlier stage, oldest first.
type Context struct {
	TaskID         string
	Content        string
	AdditionalInfo string
	Outputs        []StageOutput
}

func newContext(task *Task, outputs []StageOutput) Context {
	return Context{
		TaskID:         task.ID,
		Content:        task.Content,
		AdditionalInfo: task.AdditionalInfo,
		// Capabilities must not be able to rewrite history.
		Outputs: append([]StageOutput(nil), outputs...),
	}
}

// Last returns the output of the most recent stage, or "".
func (c Context) Last() string {
	if len(c.Outputs) == 0 {
		return ""
	}
	return c.Outputs[len(c.Outputs)-1].Text
}

// String renders the context as the prompt for the next stage: the task,
// the additional information if any, then each prior output verbatim.
func (c Context) String() string {
	var b strings.Builder
	b.WriteString("Task:\n")
	b.WriteString(c.Content)
	if c.AdditionalInfo != "" {
		b.WriteString("\n\nAdditional information:\n")
		b.WriteString(c.AdditionalInfo)
	}
	for _, o := range c.Outputs {
		b.WriteString("\n\n--- Output of ")
		b.WriteString(o.Stage)
		b.WriteString(" ---\n")
		b.WriteString(o.Text)
	}
	return b.String()
}
