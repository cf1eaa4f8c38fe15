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

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/runner"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var start = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func completedOutcome(id string, startedAt time.Time) *runner.Outcome {
	task := &pipeline.Task{ID: id, Content: "Why is the sky blue?", Result: "Rayleigh scattering."}
	return &runner.Outcome{
		ID:     id,
		Team:   "socratic",
		Query:  "Why is the sky blue?",
		Task:   task,
		Status: runner.StatusCompleted,
		Run: &pipeline.Run{
			Task: task,
			Outputs: []pipeline.StageOutput{
				{Stage: "Research Planner Agent", Text: "Plan"},
				{Stage: "Research Agent", Text: "Findings"},
				{Stage: "Report Creator Agent", Text: "Rayleigh scattering."},
			},
			Verdict: &pipeline.Verdict{Assessment: pipeline.Revise, Score: 6.5, Findings: []string{"Cite a source"}},
			Phase:   pipeline.Phase{State: pipeline.StateCompleted},
		},
		Paths:      []string{"results/20250314_092653_Why_is_the_sky_blue.md"},
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Minute),
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if err := s.Record(ctx, completedOutcome("run-1", start)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != runner.StatusCompleted || got.Phase != "COMPLETED" || got.Result != "Rayleigh scattering." {
		t.Errorf("Get() = %+v", got)
	}
	var names []string
	for _, st := range got.Stages {
		names = append(names, st.Name)
	}
	if diff := cmp.Diff([]string{"Research Planner Agent", "Research Agent", "Report Creator Agent"}, names); diff != "" {
		t.Errorf("stage order mismatch (-want +got):\n%s", diff)
	}
	want := &pipeline.Verdict{Assessment: pipeline.Revise, Score: 6.5, Findings: []string{"Cite a source"}}
	if diff := cmp.Diff(want, got.Verdict()); diff != "" {
		t.Errorf("Verdict() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"results/20250314_092653_Why_is_the_sky_blue.md"}, got.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_Replaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if err := s.Record(ctx, completedOutcome("run-1", start)); err != nil {
		t.Fatal(err)
	}
	failed := &runner.Outcome{
		ID:     "run-1",
		Team:   "socratic",
		Query:  "Why is the sky blue?",
		Status: runner.StatusFailed,
		Err:    errors.New("stage 2 (Research Agent) failed: quota exceeded"),
		Run: &pipeline.Run{
			Outputs: []pipeline.StageOutput{{Stage: "Research Planner Agent", Text: "Plan"}},
			Phase:   pipeline.Phase{State: pipeline.StateFailed},
		},
		StartedAt: start,
	}
	if err := s.Record(ctx, failed); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != runner.StatusFailed || got.Error == "" || len(got.Stages) != 1 || got.Verdict() != nil {
		t.Errorf("Get() after replace = %+v", got)
	}
}

func TestList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		o := completedOutcome(id, start.Add(time.Duration(i)*time.Hour))
		if id == "b" {
			o.Team = "deep-research"
		}
		if err := s.Record(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	// A run that never started the pipeline.
	if err := s.Record(ctx, &runner.Outcome{ID: "d", Team: "socratic", Status: runner.StatusFailed, StartedAt: start.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"c", "b", "a", "d"}},
		{"team", Filter{Team: "socratic"}, []string{"c", "a", "d"}},
		{"status", Filter{Status: runner.StatusFailed}, []string{"d"}},
		{"limit", Filter{Limit: 2}, []string{"c", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var ids []string
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
