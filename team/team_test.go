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

package team_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/awalterschulze/gographviz"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
	"github.com/ivanvanderbyl/researchteam/model/modeltest"
	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/prompt"
	"github.com/ivanvanderbyl/researchteam/team"
	"github.com/ivanvanderbyl/researchteam/tool/websearch"
)

// scriptedResolver hands out models in the order they are resolved.
type scriptedResolver struct {
	models []*modeltest.Model
	refs   []string
}

func (r *scriptedResolver) Resolve(_ context.Context, ref string) (model.LLM, error) {
	n := len(r.refs)
	r.refs = append(r.refs, ref)
	if n >= len(r.models) {
		return nil, fmt.Errorf("no model scripted for %s", ref)
	}
	return r.models[n], nil
}

type fakeSearcher struct{}

func (fakeSearcher) Search(context.Context, string) ([]websearch.Result, error) {
	return []websearch.Result{{Title: "Paris", URL: "https://en.wikipedia.org/wiki/Paris", Snippet: "Capital of France"}}, nil
}

func TestBuiltin(t *testing.T) {
	for _, name := range team.Names() {
		def, err := team.Builtin(name)
		if err != nil {
			t.Fatalf("Builtin(%q) error = %v", name, err)
		}
		if def.Name != name {
			t.Errorf("Builtin(%q).Name = %q", name, def.Name)
		}
		if errs := team.Validate(def); len(errs) > 0 {
			t.Errorf("Validate(%q) = %v, want no errors", name, errs)
		}
	}

	def, err := team.Builtin("")
	if err != nil || def.Name != team.DefaultName {
		t.Errorf("Builtin(\"\") = %q, %v, want the default team", def.Name, err)
	}
	if _, err := team.Builtin("nope"); err == nil {
		t.Error("Builtin(\"nope\") succeeded, want error")
	}
}

func TestRequiredVars(t *testing.T) {
	socratic, _ := team.Builtin(team.Socratic)
	if got := team.RequiredVars(socratic); len(got) != 0 {
		t.Errorf("RequiredVars(socratic) = %v, want none", got)
	}
	deep, _ := team.Builtin(team.DeepResearch)
	if diff := cmp.Diff([]string{"content"}, team.RequiredVars(deep)); diff != "" {
		t.Errorf("RequiredVars(deep-research) mismatch (-want +got):\n%s", diff)
	}
}

func TestRequirements(t *testing.T) {
	tests := []struct {
		team   string
		vertex bool
		want   []string
	}{
		{team: team.Socratic, want: []string{"GOOGLE_API_KEY", "OPENAI_API_KEY", "SEARCH_ENGINE_ID"}},
		{team: team.DeepResearch, want: []string{"DEEPSEEK_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "SEARCH_ENGINE_ID"}},
	}
	for _, tc := range tests {
		def, _ := team.Builtin(tc.team)
		got, err := team.Requirements(def, tc.vertex)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Requirements(%s) mismatch (-want +got):\n%s", tc.team, diff)
		}
	}

	def := team.Definition{
		Name:   "claude",
		Stages: []team.StageDefinition{{Name: "a", Model: "anthropic:claude-sonnet-4-5", Instructions: "x"}},
		Judge:  &team.JudgeDefinition{Model: "gemini:gemini-2.5-flash", Instructions: "y"},
	}
	got, err := team.Requirements(def, true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"GEMINI_API_KEY", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_REGION"}, got); diff != "" {
		t.Errorf("Requirements(vertex) mismatch (-want +got):\n%s", diff)
	}
}

const teamYAML = `
name: quick
description: Two step research
task: "Research this: {{query}}"
vars:
  tone: neutral
stages:
  - name: Researcher
    model: gemini:gemini-2.5-flash
    tools: [google_search]
    role: Researcher
    instructions: Research the task in a {{tone}} tone.
    options:
      temperature: 0.2
      max_output_tokens: 2048
      max_tool_rounds: 3
  - name: Writer
    model: anthropic:claude-sonnet-4-5
    instructions: Write the report.
    options:
      thinking_budget: "1024"
judge:
  model: openai:gpt-4o
  instructions: Grade the report.
  threshold: 7
`

func TestParse(t *testing.T) {
	def, err := team.Parse([]byte(teamYAML))
	if err != nil {
		t.Fatal(err)
	}
	if errs := team.Validate(def); len(errs) > 0 {
		t.Fatalf("Validate() = %v", errs)
	}
	if def.Name != "quick" || len(def.Stages) != 2 || def.Judge == nil || def.Judge.Threshold != 7 {
		t.Fatalf("Parse() = %+v", def)
	}
	if diff := cmp.Diff(prompt.Vars{"tone": "neutral"}, def.Vars); diff != "" {
		t.Errorf("vars mismatch (-want +got):\n%s", diff)
	}

	opts, err := team.DecodeOptions(def.Stages[0].Options)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Temperature == nil || *opts.Temperature != 0.2 || opts.MaxOutputTokens != 2048 || opts.MaxToolRounds != 3 {
		t.Errorf("DecodeOptions() = %+v", opts)
	}
	cfg := opts.GenerateConfig()
	if cfg == nil || cfg.MaxOutputTokens != 2048 || cfg.ThinkingConfig != nil {
		t.Errorf("GenerateConfig() = %+v", cfg)
	}

	opts, err = team.DecodeOptions(def.Stages[1].Options)
	if err != nil {
		t.Fatal(err)
	}
	if cfg := opts.GenerateConfig(); cfg == nil || cfg.ThinkingConfig == nil || *cfg.ThinkingConfig.ThinkingBudget != 1024 {
		t.Errorf("GenerateConfig() = %+v, want a thinking budget of 1024", cfg)
	}

	if _, err := team.Parse([]byte("  ")); err == nil {
		t.Error("Parse(empty) succeeded, want error")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want, _ := team.Builtin(team.DeepResearch)
	data, err := team.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := team.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeOptions_Unknown(t *testing.T) {
	if _, err := team.DecodeOptions(map[string]any{"temprature": 0.1}); err == nil {
		t.Error("DecodeOptions() succeeded with an unknown key")
	}
	opts, err := team.DecodeOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.GenerateConfig() != nil {
		t.Error("GenerateConfig() of empty options is not nil")
	}
}

func TestValidate(t *testing.T) {
	def := team.Definition{
		Stages: []team.StageDefinition{
			{Name: "a", Model: "openai:gpt-4o", Instructions: "x", Tools: []string{"calculator"}},
			{Name: "a", Model: "gpt-4o"},
			{Model: "openai:gpt-4o", Instructions: "x", Options: map[string]any{"bogus": 1}},
		},
		Judge: &team.JudgeDefinition{Model: "openai:gpt-4o", Threshold: 12},
	}
	var got []string
	for _, e := range team.Validate(def) {
		got = append(got, e.Field)
	}
	want := []string{
		"name",
		"stages[0].tools[0]",
		"stages[1].name",
		"stages[1].model",
		"stages[1].instructions",
		"stages[2].name",
		"stages[2].options",
		"judge.instructions",
		"judge.threshold",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Validate() fields mismatch (-want +got):\n%s", diff)
	}

	if errs := team.Validate(team.Definition{Name: "empty"}); len(errs) != 1 || errs[0].Field != "stages" {
		t.Errorf("Validate(no stages) = %v", errs)
	}
}

func TestBuild_Socratic(t *testing.T) {
	def, _ := team.Builtin(team.Socratic)
	planner := modeltest.Text("plan")
	researcher := &modeltest.Model{Responses: []*model.LLMResponse{
		modeltest.CallResponse(&genai.FunctionCall{ID: "1", Name: websearch.ToolName, Args: map[string]any{"query": "capital of France"}}),
		modeltest.TextResponse("findings"),
	}}
	writer := modeltest.Text("Paris is the capital of France.")
	resolver := &scriptedResolver{models: []*modeltest.Model{planner, researcher, writer}}

	tm, err := team.Build(t.Context(), def, team.Deps{Models: resolver, Search: fakeSearcher{}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"openai:gpt-4o", "openai:gpt-4o", "openai:gpt-4o"}, resolver.refs); diff != "" {
		t.Errorf("resolved refs mismatch (-want +got):\n%s", diff)
	}
	if tm.Gate != nil {
		t.Error("socratic team has a gate")
	}
	brief, err := tm.Brief("What is the capital of France?")
	if err != nil || brief != "What is the capital of France?" {
		t.Errorf("Brief() = %q, %v", brief, err)
	}

	p, err := pipeline.New(pipeline.Config{Name: tm.Name, Stages: tm.Stages, Gate: tm.Gate})
	if err != nil {
		t.Fatal(err)
	}
	task := &pipeline.Task{ID: "t1", Content: brief}
	if _, err := p.Execute(t.Context(), task); err != nil {
		t.Fatal(err)
	}
	if task.Result != "Paris is the capital of France." {
		t.Errorf("Result = %q", task.Result)
	}

	sys := writer.Requests()[0].Config.SystemInstruction.Parts[0].Text
	for _, want := range []string{"Role: Report Synthesizer", "Episteme (Verified Knowledge)"} {
		if !strings.Contains(sys, want) {
			t.Errorf("writer system instruction does not contain %q", want)
		}
	}
	// The search results went back to the researcher.
	reqs := researcher.Requests()
	if len(reqs) != 2 {
		t.Fatalf("researcher got %d requests, want 2", len(reqs))
	}
	last := reqs[1].Contents[len(reqs[1].Contents)-1]
	if fr := last.Parts[0].FunctionResponse; fr == nil || fr.Name != websearch.ToolName {
		t.Errorf("last researcher content = %+v, want a search response", last)
	}
}

func TestBuild_DeepResearch(t *testing.T) {
	def, _ := team.Builtin(team.DeepResearch)

	t.Run("missing content", func(t *testing.T) {
		resolver := &scriptedResolver{models: []*modeltest.Model{modeltest.Text("a"), modeltest.Text("b"), modeltest.Text("c"), modeltest.Text("d")}}
		if _, err := team.Build(t.Context(), def, team.Deps{Models: resolver, Search: fakeSearcher{}}); err == nil {
			t.Error("Build() succeeded without content")
		}
	})

	t.Run("with judge", func(t *testing.T) {
		judgeModel := modeltest.Text(`{"overall_assessment": "PASS", "score": "9/10", "recommendations": ["Add a link"]}`)
		resolver := &scriptedResolver{models: []*modeltest.Model{
			modeltest.Text("plan"), modeltest.Text("research"), modeltest.Text("report"), judgeModel,
		}}
		tm, err := team.Build(t.Context(), def, team.Deps{
			Models: resolver,
			Search: fakeSearcher{},
			Vars:   prompt.Vars{"content": "feat: add Qwen models"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"deepseek:deepseek-reasoner", "openai:gpt-4o", "openai:gpt-4o", "openai:gpt-4o"}, resolver.refs); diff != "" {
			t.Errorf("resolved refs mismatch (-want +got):\n%s", diff)
		}
		brief, err := tm.Brief("Qwen model integration")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(brief, "Focus on:\n   Qwen model integration") {
			t.Errorf("Brief() = %q", brief)
		}

		p, err := pipeline.New(pipeline.Config{Name: tm.Name, Stages: tm.Stages, Gate: tm.Gate})
		if err != nil {
			t.Fatal(err)
		}
		run, err := p.Execute(t.Context(), &pipeline.Task{ID: "0", Content: brief, AdditionalInfo: "feat: add Qwen models"})
		if err != nil {
			t.Fatal(err)
		}
		want := pipeline.Verdict{Assessment: pipeline.Accept, Score: 9, Findings: []string{"Add a link"}}
		if diff := cmp.Diff(&want, run.Verdict); diff != "" {
			t.Errorf("verdict mismatch (-want +got):\n%s", diff)
		}
		if !strings.HasPrefix(run.Task.Result, "report\n\n---\n\n## Quality Assessment") {
			t.Errorf("Result = %q", run.Task.Result)
		}
		jr := judgeModel.Requests()
		if len(jr) != 1 || !strings.Contains(jr[0].Contents[0].Parts[0].Text, "against the required ingredients") {
			t.Errorf("judge did not receive the team's brief: %+v", jr)
		}
	})
}

func TestBuild_Errors(t *testing.T) {
	def, _ := team.Builtin(team.Socratic)
	resolver := &scriptedResolver{models: []*modeltest.Model{modeltest.Text("a"), modeltest.Text("b"), modeltest.Text("c")}}
	if _, err := team.Build(t.Context(), def, team.Deps{Models: resolver}); err == nil || !strings.Contains(err.Error(), "search client") {
		t.Errorf("Build() without a searcher error = %v", err)
	}
	if _, err := team.Build(t.Context(), def, team.Deps{}); err == nil {
		t.Error("Build() without a resolver succeeded")
	}
	if _, err := team.Build(t.Context(), team.Definition{Name: "x"}, team.Deps{Models: resolver}); err == nil {
		t.Error("Build() of an invalid definition succeeded")
	}
}

func TestGraph(t *testing.T) {
	def, _ := team.Builtin(team.DeepResearch)
	dot, err := team.Graph(def)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gographviz.Read([]byte(dot)); err != nil {
		t.Fatalf("Graph() produced invalid DOT: %v\n%s", err, dot)
	}
	for _, want := range []string{
		"digraph",
		"Content Research Planner Agent",
		"deepseek:deepseek-reasoner",
		"Report Quality Judge",
		"search_google",
		"stage2->judge",
		"judge->report",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("Graph() does not contain %q:\n%s", want, dot)
		}
	}
}
