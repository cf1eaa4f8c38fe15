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

package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ivanvanderbyl/researchteam/agent/llmagent"
	"github.com/ivanvanderbyl/researchteam/judge"
	"github.com/ivanvanderbyl/researchteam/model"
	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/prompt"
	"github.com/ivanvanderbyl/researchteam/tool"
	"github.com/ivanvanderbyl/researchteam/tool/geminitool"
	"github.com/ivanvanderbyl/researchteam/tool/websearch"
)

// ModelResolver maps a "provider:model" reference to a model.
type ModelResolver interface {
	Resolve(ctx context.Context, ref string) (model.LLM, error)
}

// Deps are the collaborators a team is built from.
type Deps struct {
	Models ModelResolver
	// Search backs the search_google tool. Required only when a stage uses it.
	Search websearch.Searcher
	// Vars override the definition's vars.
	Vars   prompt.Vars
	Logger *slog.Logger
}

// Team is a built definition, ready to hand to [pipeline.New].
type Team struct {
	Name        string
	Description string
	Stages      []pipeline.Stage
	// Gate is nil when the definition has no judge.
	Gate pipeline.AcceptanceGate

	task string
	vars prompt.Vars
}

// Brief turns a query into the task content. Without a task template the
// query is used verbatim.
func (t *Team) Brief(query string) (string, error) {
	if t.task == "" {
		return query, nil
	}
	return prompt.Render(t.task, t.vars.Merge(prompt.Vars{"query": query}))
}

// Build validates def and creates its agents.
func Build(ctx context.Context, def Definition, deps Deps) (*Team, error) {
	if errs := Validate(def); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("team %q: %w", def.Name, errors.Join(joined...))
	}
	if deps.Models == nil {
		return nil, errors.New("team: a model resolver is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vars := def.Vars.Merge(deps.Vars)
	t := &Team{
		Name:        def.Name,
		Description: def.Description,
		task:        def.Task,
		vars:        vars,
	}

	tools := newToolSet(deps.Search)
	for _, s := range def.Stages {
		opts, err := DecodeOptions(s.Options)
		if err != nil {
			return nil, err
		}
		llm, err := deps.Models.Resolve(ctx, s.Model)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", s.Name, err)
		}
		stageTools, err := tools.lookup(s.Tools)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", s.Name, err)
		}
		a, err := llmagent.New(llmagent.Config{
			Name:           s.Name,
			Description:    s.Description,
			Model:          llm,
			Instruction:    s.Template(),
			Vars:           vars,
			Tools:          stageTools,
			GenerateConfig: opts.GenerateConfig(),
			MaxToolRounds:  opts.MaxToolRounds,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		t.Stages = append(t.Stages, a.Stage())
	}

	if j := def.Judge; j != nil {
		gate, err := buildJudge(ctx, *j, vars, deps.Models, logger)
		if err != nil {
			return nil, err
		}
		t.Gate = gate
	}
	return t, nil
}

func buildJudge(ctx context.Context, def JudgeDefinition, vars prompt.Vars, models ModelResolver, logger *slog.Logger) (*judge.Judge, error) {
	name := def.Name
	if name == "" {
		name = "Report Quality Judge"
	}
	opts, err := DecodeOptions(def.Options)
	if err != nil {
		return nil, err
	}
	llm, err := models.Resolve(ctx, def.Model)
	if err != nil {
		return nil, fmt.Errorf("judge: %w", err)
	}
	a, err := llmagent.New(llmagent.Config{
		Name:           name,
		Model:          llm,
		Instruction:    def.Template(),
		Vars:           vars,
		GenerateConfig: opts.GenerateConfig(),
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return judge.New(judge.Config{Capability: a, Threshold: def.Threshold, Brief: def.Brief, Logger: logger})
}

// toolSet creates each tool once and shares it between stages.
type toolSet struct {
	search websearch.Searcher
	built  map[string]tool.Tool
}

func newToolSet(search websearch.Searcher) *toolSet {
	return &toolSet{search: search, built: make(map[string]tool.Tool)}
}

func (ts *toolSet) lookup(names []string) ([]tool.Tool, error) {
	var out []tool.Tool
	for _, name := range names {
		t, ok := ts.built[name]
		if !ok {
			var err error
			if t, err = ts.create(name); err != nil {
				return nil, err
			}
			ts.built[name] = t
		}
		out = append(out, t)
	}
	return out, nil
}

func (ts *toolSet) create(name string) (tool.Tool, error) {
	switch name {
	case websearch.ToolName:
		if ts.search == nil {
			return nil, fmt.Errorf("tool %s needs a search client (set GOOGLE_API_KEY and SEARCH_ENGINE_ID)", name)
		}
		return websearch.NewTool(ts.search)
	case geminitool.GoogleSearch.Name():
		return geminitool.GoogleSearch, nil
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}
