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

package judge_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ivanvanderbyl/researchteam/judge"
	"github.com/ivanvanderbyl/researchteam/pipeline"
)

const evaluation = `{
  "overall_assessment": "NEEDS_REVISION",
  "score": "6/10",
  "criteria_evaluation": {
    "ingredients_coverage": {
      "score": "5/10",
      "findings": ["Audience is covered"],
      "missing_elements": ["No counterarguments"]
    },
    "recipe_compliance": {
      "score": "7/10",
      "weaknesses": ["Conclusion is thin"],
      "findings": ["Follows the structure"]
    }
  },
  "recommendations": ["Add a counterargument section"]
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   pipeline.Verdict
		wantOK bool
	}{
		{
			name: "plain JSON",
			text: evaluation,
			want: pipeline.Verdict{
				Assessment: pipeline.Revise,
				Score:      6,
				Findings: []string{
					"Audience is covered",
					"No counterarguments",
					"Conclusion is thin",
					"Follows the structure",
					"Add a counterargument section",
				},
			},
			wantOK: true,
		},
		{
			name:   "fenced with prose",
			text:   "Here is my evaluation:\n\n```json\n{\"overall_assessment\": \"PASS\", \"score\": 9}\n```\nThanks.",
			want:   pipeline.Verdict{Assessment: pipeline.Accept, Score: 9},
			wantOK: true,
		},
		{
			name:   "embedded in prose",
			text:   `The verdict is {"overall_assessment": "pass", "score": "4/5"} overall.`,
			want:   pipeline.Verdict{Assessment: pipeline.Accept, Score: 8},
			wantOK: true,
		},
		{
			name:   "unknown assessment",
			text:   `{"overall_assessment": "MAYBE", "score": "7"}`,
			want:   pipeline.Verdict{Assessment: pipeline.Revise, Score: 7},
			wantOK: true,
		},
		{
			name:   "not JSON",
			text:   "  The report looks fine to me.  ",
			want:   pipeline.Verdict{Assessment: pipeline.Revise, Findings: []string{"The report looks fine to me."}},
			wantOK: false,
		},
		{
			name:   "JSON without assessment",
			text:   `{"score": 10}`,
			want:   pipeline.Verdict{Assessment: pipeline.Revise, Findings: []string{`{"score": 10}`}},
			wantOK: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := judge.Parse(tc.text)
			if ok != tc.wantOK {
				t.Errorf("Parse() ok = %v, want %v", ok, tc.wantOK)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	var gotInput pipeline.Context
	capability := func(text string) pipeline.CapabilityFunc {
		return func(_ context.Context, in pipeline.Context) (string, error) {
			gotInput = in
			return text, nil
		}
	}

	t.Run("passes report to evaluator", func(t *testing.T) {
		j, err := judge.New(judge.Config{Capability: capability(`{"overall_assessment":"PASS","score":"8/10"}`)})
		if err != nil {
			t.Fatal(err)
		}
		v, err := j.Evaluate(t.Context(), "Final report")
		if err != nil {
			t.Fatal(err)
		}
		if !v.Accepted() {
			t.Errorf("verdict = %v, want ACCEPT", v.Assessment)
		}
		if !strings.Contains(gotInput.String(), "Final report") {
			t.Errorf("evaluator input %q does not contain the report", gotInput.String())
		}
		if gotInput.Content != judge.DefaultBrief {
			t.Errorf("brief = %q, want %q", gotInput.Content, judge.DefaultBrief)
		}
	})

	t.Run("custom brief", func(t *testing.T) {
		j, err := judge.New(judge.Config{
			Capability: capability(`{"overall_assessment":"PASS","score":"8/10"}`),
			Brief:      "Check the report against the style guide.",
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := j.Evaluate(t.Context(), "Final report"); err != nil {
			t.Fatal(err)
		}
		if gotInput.Content != "Check the report against the style guide." {
			t.Errorf("brief = %q", gotInput.Content)
		}
	})

	t.Run("threshold", func(t *testing.T) {
		j, err := judge.New(judge.Config{
			Capability: capability(`{"overall_assessment":"PASS","score":"6/10"}`),
			Threshold:  7,
		})
		if err != nil {
			t.Fatal(err)
		}
		v, err := j.Evaluate(t.Context(), "Final report")
		if err != nil {
			t.Fatal(err)
		}
		want := pipeline.Verdict{
			Assessment: pipeline.Revise,
			Score:      6,
			Findings:   []string{"score 6 is below the acceptance threshold of 7"},
		}
		if diff := cmp.Diff(want, v); diff != "" {
			t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unparseable is advisory", func(t *testing.T) {
		j, err := judge.New(judge.Config{Capability: capability("no idea")})
		if err != nil {
			t.Fatal(err)
		}
		v, err := j.Evaluate(t.Context(), "Final report")
		if err != nil {
			t.Fatalf("Evaluate() error = %v, want nil", err)
		}
		if v.Assessment != pipeline.Revise {
			t.Errorf("assessment = %v, want REVISE", v.Assessment)
		}
	})

	t.Run("evaluator failure", func(t *testing.T) {
		boom := errors.New("boom")
		j, err := judge.New(judge.Config{Capability: pipeline.CapabilityFunc(func(context.Context, pipeline.Context) (string, error) {
			return "", boom
		})})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := j.Evaluate(t.Context(), "Final report"); !errors.Is(err, boom) {
			t.Errorf("Evaluate() error = %v, want %v", err, boom)
		}
	})
}

func TestNew_Errors(t *testing.T) {
	noop := pipeline.CapabilityFunc(func(context.Context, pipeline.Context) (string, error) { return "", nil })
	for _, cfg := range []judge.Config{
		{},
		{Capability: noop, Threshold: -1},
		{Capability: noop, Threshold: 11},
	} {
		if _, err := judge.New(cfg); err == nil {
			t.Errorf("New(%+v) succeeded, want error", cfg)
		}
	}
}
