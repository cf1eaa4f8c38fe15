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

package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/runner"
)

type fakeResearcher struct {
	got runner.Request
	err error
}

func (f *fakeResearcher) Run(_ context.Context, req runner.Request) *runner.Outcome {
	f.got = req
	if f.err != nil {
		return &runner.Outcome{ID: "run-1", Status: runner.StatusFailed, Err: f.err}
	}
	task := &pipeline.Task{ID: "run-1", Content: req.Query, Result: "Paris is the capital of France."}
	return &runner.Outcome{
		ID:     "run-1",
		Task:   task,
		Status: runner.StatusCompleted,
		Run: &pipeline.Run{
			Task:    task,
			Verdict: &pipeline.Verdict{Assessment: pipeline.Accept, Score: 8, Findings: []string{"Cite sources"}},
		},
		Paths: []string{"results/x.md"},
	}
}

func connect(t *testing.T, r Researcher) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	st, ct := mcp.NewInMemoryTransports()
	ss, err := New(r, "socratic", "test").Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server Connect() error = %v", err)
	}
	t.Cleanup(func() { ss.Close() })
	cs, err := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil).Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client Connect() error = %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestResearchTool(t *testing.T) {
	r := &fakeResearcher{}
	cs := connect(t, r)
	ctx := context.Background()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != ToolName {
		t.Fatalf("ListTools() = %+v", tools.Tools)
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{"query": " What is the capital of France? ", "additional_info": "Be brief."},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool() returned a tool error: %+v", res.Content)
	}
	if diff := cmp.Diff(runner.Request{Query: "What is the capital of France?", AdditionalInfo: "Be brief."}, r.got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok || text.Text != "Paris is the capital of France." {
		t.Errorf("content = %#v", res.Content)
	}
	structured, ok := res.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("structured content = %#v", res.StructuredContent)
	}
	if structured["assessment"] != "ACCEPT" || structured["score"] != 8.0 || structured["id"] != "run-1" {
		t.Errorf("structured content = %v", structured)
	}
}

func TestResearchTool_Errors(t *testing.T) {
	tests := []struct {
		name string
		r    *fakeResearcher
		args map[string]any
	}{
		{"empty query", &fakeResearcher{}, map[string]any{"query": "  "}},
		{"run failed", &fakeResearcher{err: errors.New("stage 2 (Research Agent) failed: timeout")}, map[string]any{"query": "q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := connect(t, tt.r)
			res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: ToolName, Arguments: tt.args})
			if err != nil {
				t.Fatalf("CallTool() error = %v", err)
			}
			if !res.IsError {
				t.Errorf("CallTool() IsError = false, want true")
			}
		})
	}
}
