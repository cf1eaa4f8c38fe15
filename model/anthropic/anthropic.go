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

package anthropic

import (
	"context"
	"fmt"
	"iter"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/internal/anthropicllm/converters"
	"github.com/ivanvanderbyl/researchteam/model"
)

const defaultMaxTokens = 4096

type anthropicModel struct {
	client           anthropic.Client
	name             anthropic.Model
	variant          Variant
	defaultMaxTokens int
}

// NewModel returns [model.LLM], backed by Anthropic Claude.
//
// Vertex AI requires VertexProjectID and VertexRegion. The direct API
// requires APIKey.
func NewModel(ctx context.Context, modelName anthropic.Model, cfg *Config) (model.LLM, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	variant := cfg.Variant
	if variant == "" {
		variant = VariantAnthropicAPI
	}
	if err := variant.validate(); err != nil {
		return nil, err
	}

	var client anthropic.Client
	switch variant {
	case VariantVertexAI:
		if cfg.VertexProjectID == "" {
			return nil, fmt.Errorf("VertexProjectID is required for Vertex AI (set GOOGLE_CLOUD_PROJECT)")
		}
		if cfg.VertexRegion == "" {
			return nil, fmt.Errorf("VertexRegion is required for Vertex AI (set GOOGLE_CLOUD_REGION)")
		}
		client = anthropic.NewClient(vertex.WithGoogleAuth(ctx, cfg.VertexRegion, cfg.VertexProjectID))
	case VariantAnthropicAPI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("APIKey is required for the Anthropic API (set ANTHROPIC_API_KEY)")
		}
		client = newAPIClient(cfg)
	}

	maxTokens := cfg.DefaultMaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &anthropicModel{
		client:           client,
		name:             modelName,
		variant:          variant,
		defaultMaxTokens: maxTokens,
	}, nil
}

func newAPIClient(cfg *Config) anthropic.Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	return anthropic.NewClient(opts...)
}

// Name returns the model name.
func (m *anthropicModel) Name() string {
	return string(m.name)
}

// GenerateContent calls the Anthropic model.
func (m *anthropicModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	m.maybeAppendUserContent(req)

	if stream {
		return m.generateStream(ctx, req)
	}

	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *anthropicModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params, err := m.convertRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to convert request: %w", err)
	}

	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to call model: %w", err)
	}

	resp := converters.MessageToLLMResponse(msg)
	resp.TurnComplete = true
	return resp, nil
}

// generateStream yields text and thinking deltas as partial responses, then
// the accumulated message as the final one.
func (m *anthropicModel) generateStream(ctx context.Context, req *model.LLMRequest) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		params, err := m.convertRequest(req)
		if err != nil {
			yield(nil, fmt.Errorf("failed to convert request: %w", err))
			return
		}

		stream := m.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()
		message := anthropic.Message{}

		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				yield(nil, fmt.Errorf("failed to accumulate message: %w", err))
				return
			}

			ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			var partial *model.LLMResponse
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				partial = converters.PartialText(delta.Text, false)
			case anthropic.ThinkingDelta:
				partial = converters.PartialText(delta.Thinking, true)
			}
			if partial != nil && !yield(partial, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield(nil, fmt.Errorf("stream error: %w", err))
			return
		}

		final := converters.MessageToLLMResponse(&message)
		final.TurnComplete = true
		yield(final, nil)
	}
}

func (m *anthropicModel) convertRequest(req *model.LLMRequest) (anthropic.MessageNewParams, error) {
	messages, err := converters.ContentsToMessages(req.Contents)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("failed to convert contents: %w", err)
	}

	name := m.name
	if req.Model != "" {
		name = anthropic.Model(req.Model)
	}
	params := anthropic.MessageNewParams{
		Model:     name,
		Messages:  messages,
		MaxTokens: int64(m.defaultMaxTokens),
	}

	cfg := req.Config
	if cfg == nil {
		return params, nil
	}
	if cfg.SystemInstruction != nil {
		params.System = converters.SystemInstructionToSystem(cfg.SystemInstruction)
	}
	if cfg.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		params.TopP = anthropic.Float(float64(*cfg.TopP))
	}
	if cfg.TopK != nil {
		params.TopK = anthropic.Int(int64(*cfg.TopK))
	}
	if len(cfg.StopSequences) > 0 {
		params.StopSequences = cfg.StopSequences
	}
	if cfg.MaxOutputTokens > 0 {
		params.MaxTokens = int64(cfg.MaxOutputTokens)
	}
	if tc := cfg.ThinkingConfig; tc != nil && tc.ThinkingBudget != nil && *tc.ThinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(*tc.ThinkingBudget))
	}
	if len(cfg.Tools) > 0 {
		params.Tools = converters.ToolsToAnthropicTools(cfg.Tools)
	}
	return params, nil
}

// maybeAppendUserContent ensures the conversation ends with a user message.
// Anthropic requires strictly alternating user/assistant turns.
func (m *anthropicModel) maybeAppendUserContent(req *model.LLMRequest) {
	if len(req.Contents) == 0 {
		req.Contents = append(req.Contents,
			genai.NewContentFromText("Handle the requests as specified in the System Instruction.", "user"))
		return
	}

	last := req.Contents[len(req.Contents)-1]
	if last == nil || last.Role == "user" {
		return
	}
	for _, p := range last.Parts {
		// Tool results are sent as user turns already.
		if p != nil && p.FunctionResponse != nil {
			return
		}
	}
	req.Contents = append(req.Contents,
		genai.NewContentFromText("Continue processing previous requests as instructed.", "user"))
}
