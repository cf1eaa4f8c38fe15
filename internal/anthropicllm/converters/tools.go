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

package converters

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"
)

// DefaultWebSearchMaxUses caps server-side searches per turn when a request
// enables native search.
const DefaultWebSearchMaxUses = 5

// ToolsToAnthropicTools converts genai tools. Function declarations become
// client tools; a GoogleSearch tool enables Anthropic's server-side web
// search, which is the closest native equivalent.
func ToolsToAnthropicTools(tools []*genai.Tool) []anthropic.ToolUnionParam {
	var result []anthropic.ToolUnionParam
	webSearch := false
	for _, t := range tools {
		if t == nil {
			continue
		}
		if t.GoogleSearch != nil && !webSearch {
			webSearch = true
			result = append(result, anthropic.ToolUnionParam{
				OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
					MaxUses: anthropic.Int(DefaultWebSearchMaxUses),
				},
			})
		}
		for _, fd := range t.FunctionDeclarations {
			if fd != nil {
				result = append(result, FunctionDeclarationToTool(fd))
			}
		}
	}
	return result
}

// FunctionDeclarationToTool converts a function declaration. Parameters takes
// precedence over ParametersJsonSchema. Any JSON-marshalable schema value is
// accepted for the latter, including *jsonschema.Schema.
func FunctionDeclarationToTool(fd *genai.FunctionDeclaration) anthropic.ToolUnionParam {
	// The SDK fills in the root "object" type.
	inputSchema := anthropic.ToolInputSchemaParam{Properties: map[string]any{}}

	switch {
	case fd.Parameters != nil:
		if props := schemaPropertiesToMap(fd.Parameters.Properties); props != nil {
			inputSchema.Properties = props
		}
		inputSchema.Required = fd.Parameters.Required
	case fd.ParametersJsonSchema != nil:
		root := jsonSchemaToMap(fd.ParametersJsonSchema)
		if props, ok := root["properties"].(map[string]any); ok {
			inputSchema.Properties = props
		}
		inputSchema.Required = requiredFields(root["required"])
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        fd.Name,
			Description: anthropic.String(fd.Description),
			InputSchema: inputSchema,
		},
	}
}

// ParametersSchema returns the declaration's parameters as a plain JSON
// Schema object, suitable for any provider that accepts JSON Schema.
func ParametersSchema(fd *genai.FunctionDeclaration) map[string]any {
	root := map[string]any{"type": "object", "properties": map[string]any{}}
	switch {
	case fd.Parameters != nil:
		if props := schemaPropertiesToMap(fd.Parameters.Properties); props != nil {
			root["properties"] = props
		}
		if len(fd.Parameters.Required) > 0 {
			root["required"] = fd.Parameters.Required
		}
	case fd.ParametersJsonSchema != nil:
		if m := jsonSchemaToMap(fd.ParametersJsonSchema); m != nil {
			for k, v := range m {
				root[k] = v
			}
		}
	}
	return root
}

// jsonSchemaToMap normalises a schema value by round-tripping it through JSON.
func jsonSchemaToMap(schema any) map[string]any {
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func schemaPropertiesToMap(props map[string]*genai.Schema) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for name, s := range props {
		if s != nil {
			out[name] = schemaToMap(s)
		}
	}
	return out
}

// schemaToMap converts a genai schema to plain JSON Schema. genai spells
// types in upper case; JSON Schema wants lower case.
func schemaToMap(s *genai.Schema) map[string]any {
	out := map[string]any{}
	if s.Type != "" {
		out["type"] = strings.ToLower(string(s.Type))
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Items != nil {
		out["items"] = schemaToMap(s.Items)
	}
	if len(s.Properties) > 0 {
		out["properties"] = schemaPropertiesToMap(s.Properties)
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Nullable != nil && *s.Nullable {
		out["nullable"] = true
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	if s.MinItems != nil {
		out["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	return out
}
