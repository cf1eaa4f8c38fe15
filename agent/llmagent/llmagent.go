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

// Package llmagent implements a pipeline capability backed by a language
// model that may call tools.
package llmagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/prompt"
	"github.com/ivanvanderbyl/researchteam/tool"
	"github.com/ivanvanderbyl/researchteam/tool/functiontool"
)

// DefaultMaxToolRounds bounds the number of model turns that request tools.
const DefaultMaxToolRounds = 8

// Config is the configuration of an [Agent].
type Config struct {
	Name        string
	Description string
	Model       model.LLM
	// Instruction is rendered with Vars into the system instruction.
	Instruction prompt.Template
	Vars        prompt.Vars
	Tools       []tool.Tool
	// GenerateConfig holds decoding parameters. Its system instruction and
	// tools are replaced by the agent's own.
	GenerateConfig *genai.GenerateContentConfig
	// MaxToolRounds defaults to DefaultMaxToolRounds.
	MaxToolRounds int
	Logger        *slog.Logger
}

// Agent is a [pipeline.Capability] that sends the pipeline context to a model
// and runs the tools it asks for until it answers with text.
type Agent struct {
	name          string
	description   string
	llm           model.LLM
	instruction   string
	functions     map[string]tool.Function
	declarations  []*genai.FunctionDeclaration
	processors    []tool.RequestProcessor
	genConfig     genai.GenerateContentConfig
	maxToolRounds int
	logger        *slog.Logger
}

// ErrToolRounds is returned when the model keeps requesting tools past the
// configured limit.
var ErrToolRounds = errors.New("too many tool rounds")

// New validates cfg and renders the instruction. A template with unbound
// slots is rejected here, before any model call.
func New(cfg Config) (*Agent, error) {
	if cfg.Name == "" {
		return nil, errors.New("llmagent: name is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("llmagent %q: model is required", cfg.Name)
	}
	instruction, err := cfg.Instruction.Render(cfg.Vars)
	if err != nil {
		return nil, fmt.Errorf("llmagent %q: %w", cfg.Name, err)
	}

	a := &Agent{
		name:          cfg.Name,
		description:   cfg.Description,
		llm:           cfg.Model,
		instruction:   instruction,
		functions:     map[string]tool.Function{},
		maxToolRounds: cfg.MaxToolRounds,
		logger:        cfg.Logger,
	}
	if a.maxToolRounds <= 0 {
		a.maxToolRounds = DefaultMaxToolRounds
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("agent", a.name)
	if cfg.GenerateConfig != nil {
		a.genConfig = *cfg.GenerateConfig
	}

	for _, t := range cfg.Tools {
		switch t := t.(type) {
		case tool.Function:
			if _, dup := a.functions[t.Name()]; dup {
				return nil, fmt.Errorf("llmagent %q: duplicate tool %q", cfg.Name, t.Name())
			}
			a.functions[t.Name()] = t
			a.declarations = append(a.declarations, t.Declaration())
		case tool.RequestProcessor:
			a.processors = append(a.processors, t)
		default:
			return nil, fmt.Errorf("llmagent %q: tool %q is neither a function nor a request processor", cfg.Name, t.Name())
		}
	}
	return a, nil
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Instruction returns the rendered system instruction.
func (a *Agent) Instruction() string { return a.instruction }

// Stage binds the agent to a pipeline stage of the same name.
func (a *Agent) Stage() pipeline.Stage {
	return pipeline.Stage{Name: a.name, Description: a.description, Capability: a}
}

// Run implements [pipeline.Capability]. Web sources the model grounded its
// answer on are appended to the text as a reference list.
func (a *Agent) Run(ctx context.Context, in pipeline.Context) (string, error) {
	req, err := a.newRequest(ctx, in)
	if err != nil {
		return "", err
	}

	var refs references
	for round := 0; ; round++ {
		resp, err := model.Generate(ctx, a.llm, req)
		if err != nil {
			return "", err
		}
		refs.add(resp.GroundingMetadata)
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if text == "" {
				return "", fmt.Errorf("model %s returned no text (finish reason %q)", a.llm.Name(), resp.FinishReason)
			}
			return refs.appendTo(text), nil
		}
		if round >= a.maxToolRounds {
			return "", fmt.Errorf("%w: limit is %d", ErrToolRounds, a.maxToolRounds)
		}

		results, err := a.callTools(ctx, calls)
		if err != nil {
			return "", err
		}
		req.Contents = append(req.Contents,
			&genai.Content{Role: "model", Parts: resp.Content.Parts},
			&genai.Content{Role: "user", Parts: results},
		)
	}
}

func (a *Agent) newRequest(ctx context.Context, in pipeline.Context) (*model.LLMRequest, error) {
	cfg := a.genConfig
	cfg.SystemInstruction = genai.NewContentFromText(a.instruction, "user")
	cfg.Tools = nil
	if len(a.declarations) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: a.declarations}}
	}

	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(in.String(), "user")},
		Config:   &cfg,
	}
	for _, p := range a.processors {
		if err := p.ProcessRequest(ctx, req); err != nil {
			return nil, fmt.Errorf("prepare request: %w", err)
		}
	}
	return req, nil
}

// callTools runs the calls of one model turn concurrently and returns their
// responses in call order.
//
// Calls to unknown tools and calls with invalid arguments are answered with
// an error response so the model can correct itself. Any other tool failure
// fails the stage.
func (a *Agent) callTools(ctx context.Context, calls []*genai.FunctionCall) ([]*genai.Part, error) {
	parts := make([]*genai.Part, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			resp, err := a.callTool(gctx, call)
			if err != nil {
				return err
			}
			parts[i] = &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: resp,
			}}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

func (a *Agent) callTool(ctx context.Context, call *genai.FunctionCall) (map[string]any, error) {
	fn, ok := a.functions[call.Name]
	if !ok {
		a.logger.WarnContext(ctx, "Model called unknown tool", "tool", call.Name)
		return map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}, nil
	}

	a.logger.DebugContext(ctx, "Calling tool", "tool", call.Name, "args", call.Args)
	resp, err := fn.Call(ctx, call.Args)
	switch {
	case errors.Is(err, functiontool.ErrInvalidArguments):
		a.logger.WarnContext(ctx, "Tool rejected arguments", "tool", call.Name, "error", err)
		return map[string]any{"error": err.Error()}, nil
	case err != nil:
		return nil, fmt.Errorf("tool %s: %w", call.Name, err)
	}
	return resp, nil
}
