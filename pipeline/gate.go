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
	"strconv"
	"strings"
)

// Assessment is the outcome of an acceptance check.
type Assessment string

const (
	Accept Assessment = "ACCEPT"
	Revise Assessment = "REVISE"
)

// Verdict is the judgment of an [AcceptanceGate].
type Verdict struct {
	Assessment Assessment
	// Score is on a 0 to 10 scale.
	Score    float64
	Findings []string
}

// Accepted reports whether the verdict is ACCEPT.
func (v Verdict) Accepted() bool {
	return v.Assessment == Accept
}

// String renders the verdict as a markdown section.
func (v Verdict) String() string {
	var b strings.Builder
	b.WriteString("## Quality Assessment\n\n")
	fmt.Fprintf(&b, "Assessment: %s\n", v.Assessment)
	fmt.Fprintf(&b, "Score: %s/10\n", strconv.FormatFloat(v.Score, 'f', -1, 64))
	if len(v.Findings) > 0 {
		b.WriteString("\nFindings:\n")
		for _, f := range v.Findings {
			b.WriteString("- ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// AcceptanceGate evaluates the final output of a pipeline.
type AcceptanceGate interface {
	Evaluate(ctx context.Context, output string) (Verdict, error)
}

// GateFunc adapts a function to [AcceptanceGate].
type GateFunc func(ctx context.Context, output string) (Verdict, error)

func (f GateFunc) Evaluate(ctx context.Context, output string) (Verdict, error) {
	return f(ctx, output)
}

// GateStageName names the acceptance gate in errors, logs and observer
// callbacks.
const GateStageName = "acceptance gate"

// compose appends the rendered verdict to the final output.
func compose(output string, v Verdict) string {
	return strings.TrimRight(output, "\n") + "\n\n---\n\n" + v.String()
}
