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
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"

	"github.com/ivanvanderbyl/researchteam/prompt"
)

// Definition describes a research team: an ordered list of stages and an
// optional judge. It is usually loaded from YAML.
//
//	name: socratic
//	vars:
//	  recipe: ...
//	stages:
//	  - name: Research Planner Agent
//	    model: openai:gpt-4o
//	    role: Universal Research Planner
//	    instructions: |
//	      ...
//	    options:
//	      temperature: 0.2
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Task, when set, wraps the query into the task content. It is a
	// template that may reference {{query}} and any var.
	Task   string            `yaml:"task,omitempty"`
	Vars   prompt.Vars       `yaml:"vars,omitempty"`
	Stages []StageDefinition `yaml:"stages"`
	Judge  *JudgeDefinition  `yaml:"judge,omitempty"`
}

// StageDefinition is one role of the team.
type StageDefinition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Model is a "provider:model" reference.
	Model        string         `yaml:"model"`
	Tools        []string       `yaml:"tools,omitempty"`
	Role         string         `yaml:"role,omitempty"`
	Instructions string         `yaml:"instructions"`
	Slots        []string       `yaml:"slots,omitempty"`
	Options      map[string]any `yaml:"options,omitempty"`
}

// Template returns the stage's system prompt template.
func (s StageDefinition) Template() prompt.Template {
	return prompt.Template{Role: s.Role, Instructions: s.Instructions, Slots: s.Slots}
}

// JudgeDefinition configures the acceptance gate.
type JudgeDefinition struct {
	Name         string         `yaml:"name,omitempty"`
	Model        string         `yaml:"model"`
	Role         string         `yaml:"role,omitempty"`
	Instructions string         `yaml:"instructions"`
	Slots        []string       `yaml:"slots,omitempty"`
	// Brief is sent to the judge alongside the report.
	Brief     string         `yaml:"brief,omitempty"`
	Threshold float64        `yaml:"threshold,omitempty"`
	Options   map[string]any `yaml:"options,omitempty"`
}

func (j JudgeDefinition) Template() prompt.Template {
	return prompt.Template{Role: j.Role, Instructions: j.Instructions, Slots: j.Slots}
}

// GenerationOptions are the decoding parameters a stage may set.
type GenerationOptions struct {
	Temperature     *float32 `mapstructure:"temperature"`
	TopP            *float32 `mapstructure:"top_p"`
	MaxOutputTokens int32    `mapstructure:"max_output_tokens"`
	ThinkingBudget  *int32   `mapstructure:"thinking_budget"`
	MaxToolRounds   int      `mapstructure:"max_tool_rounds"`
}

// DecodeOptions decodes a stage's options map. Unknown keys are errors.
func DecodeOptions(m map[string]any) (GenerationOptions, error) {
	var opts GenerationOptions
	if len(m) == 0 {
		return opts, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(m); err != nil {
		return opts, fmt.Errorf("options: %w", err)
	}
	return opts, nil
}

// GenerateConfig converts the options into request parameters. It returns
// nil when nothing is set.
func (o GenerationOptions) GenerateConfig() *genai.GenerateContentConfig {
	if o.Temperature == nil && o.TopP == nil && o.MaxOutputTokens == 0 && o.ThinkingBudget == nil {
		return nil
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     o.Temperature,
		TopP:            o.TopP,
		MaxOutputTokens: o.MaxOutputTokens,
	}
	if o.ThinkingBudget != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: o.ThinkingBudget}
	}
	return cfg
}

// Parse decodes a definition from YAML.
func Parse(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("team: definition is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("team: decode definition: %w", err)
	}
	return def, nil
}

// Load reads a definition from r.
func Load(r io.Reader) (Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Definition{}, fmt.Errorf("team: read definition: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a definition from a YAML file.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("team: read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Marshal encodes a definition as YAML.
func Marshal(def Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
