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

// Package functiontool builds [tool.Function] values from typed Go functions.
//
// The input schema is inferred from the argument type, so the model sees the
// same contract the Go code enforces. Arguments chosen by the model are
// validated against the schema before they are decoded.
package functiontool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/tool"
)

// Config describes a function tool.
type Config struct {
	Name        string
	Description string
	// InputSchema overrides the schema inferred from the argument type.
	InputSchema *jsonschema.Schema
}

// Func is the signature of a function exposed as a tool.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// ErrInvalidArguments is wrapped by errors returned from Call when the model
// passed arguments that do not match the input schema.
var ErrInvalidArguments = errors.New("invalid arguments")

// New creates a function tool. In must be a struct or map type that
// jsonschema can describe; its json tags name the arguments and its
// jsonschema tags describe them.
func New[In, Out any](cfg Config, fn Func[In, Out]) (tool.Function, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("function tool name is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("function tool %q: function is nil", cfg.Name)
	}

	schema := cfg.InputSchema
	if schema == nil {
		var err error
		schema, err = jsonschema.For[In](nil)
		if err != nil {
			return nil, fmt.Errorf("function tool %q: infer input schema: %w", cfg.Name, err)
		}
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("function tool %q: resolve input schema: %w", cfg.Name, err)
	}

	return &functionTool[In, Out]{
		cfg:      cfg,
		schema:   schema,
		resolved: resolved,
		fn:       fn,
	}, nil
}

type functionTool[In, Out any] struct {
	cfg      Config
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	fn       Func[In, Out]
}

func (f *functionTool[In, Out]) Name() string {
	return f.cfg.Name
}

func (f *functionTool[In, Out]) Description() string {
	return f.cfg.Description
}

func (f *functionTool[In, Out]) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:                 f.cfg.Name,
		Description:          f.cfg.Description,
		ParametersJsonSchema: f.schema,
	}
}

func (f *functionTool[In, Out]) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := f.resolved.Validate(args); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", f.cfg.Name, ErrInvalidArguments, err)
	}

	var in In
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &in,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", f.cfg.Name, ErrInvalidArguments, err)
	}

	out, err := f.fn(ctx, in)
	if err != nil {
		return nil, err
	}
	return toMap(out)
}

// toMap converts a result to the object form function responses require.
// Values that do not encode as a JSON object are wrapped under "result".
func toMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil && m != nil {
		return m, nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return map[string]any{"result": raw}, nil
}
