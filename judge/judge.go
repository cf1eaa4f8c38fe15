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

// Package judge implements an acceptance gate that asks an evaluator, usually
// a language model, to grade the final report and parses its JSON evaluation
// into a verdict.
//
// The evaluation has the shape
//
//	{
//	  "overall_assessment": "PASS" | "NEEDS_REVISION",
//	  "score": "X/10",
//	  "criteria_evaluation": {"<criterion>": {"findings": [...], "missing_elements": [...], "weaknesses": [...]}},
//	  "recommendations": [...]
//	}
//
// and may be surrounded by prose or a fenced code block.
package judge

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ivanvanderbyl/researchteam/pipeline"
)

// Config is the configuration of a [Judge].
type Config struct {
	// Capability produces the evaluation text.
	Capability pipeline.Capability
	// Threshold is the minimum score for ACCEPT. Zero disables score
	// enforcement and the evaluator's own assessment stands.
	Threshold float64
	// Brief is the instruction sent with the report. Empty uses DefaultBrief.
	Brief  string
	Logger *slog.Logger
}

// DefaultBrief asks the evaluator to grade the report.
const DefaultBrief = "Evaluate the report below."

// Judge is a [pipeline.AcceptanceGate].
type Judge struct {
	capability pipeline.Capability
	threshold  float64
	brief      string
	logger     *slog.Logger
}

// New returns a judge.
func New(cfg Config) (*Judge, error) {
	if cfg.Capability == nil {
		return nil, errors.New("judge: capability is required")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 10 {
		return nil, errors.New("judge: threshold must be between 0 and 10")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	brief := strings.TrimSpace(cfg.Brief)
	if brief == "" {
		brief = DefaultBrief
	}
	return &Judge{capability: cfg.Capability, threshold: cfg.Threshold, brief: brief, logger: logger}, nil
}

// Evaluate implements [pipeline.AcceptanceGate]. Only a failure of the
// evaluator is an error. Output that cannot be parsed yields a REVISE verdict
// carrying the raw evaluation.
func (j *Judge) Evaluate(ctx context.Context, output string) (pipeline.Verdict, error) {
	text, err := j.capability.Run(ctx, pipeline.Context{
		Content: j.brief,
		Outputs: []pipeline.StageOutput{{Stage: "Report", Text: output}},
	})
	if err != nil {
		return pipeline.Verdict{}, err
	}

	v, ok := Parse(text)
	if !ok {
		j.logger.WarnContext(ctx, "Could not parse judge evaluation", "length", len(text))
		return v, nil
	}
	if j.threshold > 0 && v.Score < j.threshold && v.Assessment == pipeline.Accept {
		v.Assessment = pipeline.Revise
		v.Findings = append(v.Findings, "score "+formatScore(v.Score)+" is below the acceptance threshold of "+formatScore(j.threshold))
	}
	return v, nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)```")

// Parse extracts a verdict from an evaluation. When no evaluation object can
// be found it returns false and a REVISE verdict whose only finding is the
// trimmed text.
func Parse(text string) (pipeline.Verdict, bool) {
	doc, ok := extractJSON(text)
	if !ok || !doc.Get("overall_assessment").Exists() {
		return pipeline.Verdict{
			Assessment: pipeline.Revise,
			Findings:   []string{strings.TrimSpace(text)},
		}, false
	}

	v := pipeline.Verdict{
		Assessment: assessment(doc.Get("overall_assessment").String()),
		Score:      score(doc.Get("score")),
	}
	doc.Get("criteria_evaluation").ForEach(func(_, criterion gjson.Result) bool {
		criterion.ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case "findings", "missing_elements", "weaknesses":
				v.Findings = appendStrings(v.Findings, value)
			}
			return true
		})
		return true
	})
	v.Findings = appendStrings(v.Findings, doc.Get("recommendations"))
	return v, true
}

func extractJSON(text string) (gjson.Result, bool) {
	text = strings.TrimSpace(text)
	candidates := []string{text}
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}
	for _, c := range candidates {
		if gjson.Valid(c) {
			if r := gjson.Parse(c); r.IsObject() {
				return r, true
			}
		}
	}
	return gjson.Result{}, false
}

func assessment(s string) pipeline.Assessment {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASS", "ACCEPT", "ACCEPTED":
		return pipeline.Accept
	default:
		// NEEDS_REVISION, FAIL, and anything unrecognised.
		return pipeline.Revise
	}
}

// score reads "X/10", "X/Y" scaled to 10, or a plain number.
func score(r gjson.Result) float64 {
	if r.Type == gjson.Number {
		return r.Float()
	}
	s := strings.TrimSpace(r.String())
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return n
	}
	return n / d * 10
}

func appendStrings(dst []string, arr gjson.Result) []string {
	for _, item := range arr.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
