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

	"github.com/ivanvanderbyl/researchteam/model/registry"
	"github.com/ivanvanderbyl/researchteam/tool/geminitool"
	"github.com/ivanvanderbyl/researchteam/tool/websearch"
)

// ValidationError reports one problem with a definition.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// knownTools are the tool names a stage may list.
var knownTools = []string{websearch.ToolName, geminitool.GoogleSearch.Name()}

// Validate checks a definition without building it.
func Validate(def Definition) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if def.Name == "" {
		add("name", "is required")
	}
	if len(def.Stages) == 0 {
		add("stages", "at least one stage is required")
	}
	seen := make(map[string]bool, len(def.Stages))
	for i, s := range def.Stages {
		field := fmt.Sprintf("stages[%d]", i)
		switch {
		case s.Name == "":
			add(field+".name", "is required")
		case seen[s.Name]:
			add(field+".name", "duplicate stage name %q", s.Name)
		}
		seen[s.Name] = true
		if _, err := registry.ParseRef(s.Model); err != nil {
			add(field+".model", "%v", err)
		}
		if s.Instructions == "" {
			add(field+".instructions", "is required")
		}
		for j, t := range s.Tools {
			if !slices.Contains(knownTools, t) {
				add(fmt.Sprintf("%s.tools[%d]", field, j), "unknown tool %q", t)
			}
		}
		if _, err := DecodeOptions(s.Options); err != nil {
			add(field+".options", "%v", err)
		}
	}

	if j := def.Judge; j != nil {
		if _, err := registry.ParseRef(j.Model); err != nil {
			add("judge.model", "%v", err)
		}
		if j.Instructions == "" {
			add("judge.instructions", "is required")
		}
		if j.Threshold < 0 || j.Threshold > 10 {
			add("judge.threshold", "must be between 0 and 10")
		}
		if _, err := DecodeOptions(j.Options); err != nil {
			add("judge.options", "%v", err)
		}
	}
	return errs
}

// Requirements lists the environment keys a definition needs: model
// credentials for every stage and the judge, plus the search credentials when
// a stage uses web search. vertex selects Vertex AI for Anthropic models.
func Requirements(def Definition, vertex bool) ([]string, error) {
	var keys []string
	add := func(ref string) error {
		creds, err := registry.Credentials(ref, vertex)
		if err != nil {
			return err
		}
		keys = append(keys, creds...)
		return nil
	}
	for _, s := range def.Stages {
		if err := add(s.Model); err != nil {
			return nil, fmt.Errorf("stage %q: %w", s.Name, err)
		}
		if slices.Contains(s.Tools, websearch.ToolName) {
			keys = append(keys, "GOOGLE_API_KEY", "SEARCH_ENGINE_ID")
		}
	}
	if def.Judge != nil {
		if err := add(def.Judge.Model); err != nil {
			return nil, fmt.Errorf("judge: %w", err)
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}
