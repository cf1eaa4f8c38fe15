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
	"fmt"
	"slices"
	"strings"

	"github.com/ivanvanderbyl/researchteam/prompt"
	"github.com/ivanvanderbyl/researchteam/tool/websearch"
)

// Built-in team names.
const (
	Socratic     = "socratic"
	DeepResearch = "deep-research"

	// DefaultName is the team used when none is selected.
	DefaultName = Socratic
)

// Names lists the built-in teams.
func Names() []string {
	return []string{DeepResearch, Socratic}
}

// Builtin returns a built-in team definition by name.
func Builtin(name string) (Definition, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Socratic:
		return socratic(), nil
	case DeepResearch:
		return deepResearch(), nil
	}
	return Definition{}, fmt.Errorf("unknown team %q (available: %s)", name, strings.Join(Names(), ", "))
}

// socratic plans, researches with web search, and writes a report that
// follows the Socratic research recipe.
func socratic() Definition {
	return Definition{
		Name:        Socratic,
		Description: "Universal Research Team",
		Vars:        prompt.Vars{"recipe": socraticRecipe},
		Stages: []StageDefinition{
			{
				Name:         "Research Planner Agent",
				Description:  "an agent that builds a Socratic investigation plan for the query",
				Model:        "openai:gpt-4o",
				Role:         "Universal Research Planner",
				Instructions: socraticPlanner,
			},
			{
				Name:         "Research Agent",
				Description:  "an agent that executes the plan with web search",
				Model:        "openai:gpt-4o",
				Tools:        []string{websearch.ToolName},
				Role:         "Universal Researcher",
				Instructions: socraticResearcher,
			},
			{
				Name:         "Report Creator Agent",
				Description:  "an agent that synthesizes the findings into a report",
				Model:        "openai:gpt-4o",
				Role:         "Report Synthesizer",
				Instructions: socraticSynthesizer,
				Slots:        []string{"recipe"},
			},
		},
	}
}

// deepResearch checks content against an ingredients list, researches what
// is missing, writes a report in the recipe's format, and has a judge grade
// it.
func deepResearch() Definition {
	return Definition{
		Name:        DeepResearch,
		Description: "Content Analysis and PR Tweet Writing Group",
		Task:        deepResearchTask,
		Vars: prompt.Vars{
			"ingredients": deepResearchIngredients,
			"recipe":      deepResearchRecipe,
		},
		Stages: []StageDefinition{
			{
				Name:         "Content Research Planner Agent",
				Description:  "an agent that plans research",
				Model:        "deepseek:deepseek-reasoner",
				Role:         "Content Research Planner Agent",
				Instructions: deepResearchPlanner,
				Slots:        []string{"ingredients"},
			},
			{
				Name:         "Research Agent",
				Description:  "an agent that verifies facts and gathers context based on content type",
				Model:        "openai:gpt-4o",
				Tools:        []string{websearch.ToolName},
				Role:         "Research Agent",
				Instructions: deepResearchResearcher,
			},
			{
				Name:         "Report Creator",
				Description:  "an agent that synthesizes analysis aligned with content goals",
				Model:        "openai:gpt-4o",
				Role:         "Report Creator Agent",
				Instructions: deepResearchReporter,
				Slots:        []string{"content", "ingredients", "recipe"},
			},
		},
		Judge: &JudgeDefinition{
			Name:         "Report Quality Judge",
			Model:        "openai:gpt-4o",
			Role:         "Report Quality Judge Agent",
			Instructions: deepResearchJudge,
			Slots:        []string{"ingredients", "recipe"},
			Brief:        "Evaluate the report below against the required ingredients and the recipe format.",
		},
	}
}

// RequiredVars lists the template variables the definition leaves
// undefined. The caller must supply them, e.g. "content" for deep-research.
func RequiredVars(def Definition) []string {
	var names []string
	add := func(t prompt.Template) {
		for _, n := range t.Variables() {
			if def.Vars[n] == "" && n != "query" && !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
	}
	for _, s := range def.Stages {
		add(s.Template())
	}
	if def.Judge != nil {
		add(def.Judge.Template())
	}
	slices.Sort(names)
	return names
}
