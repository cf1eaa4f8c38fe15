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

// Package openaicompat implements the [model.LLM] interface for services that
// speak the OpenAI chat completions protocol, such as OpenAI and DeepSeek,
// on top of the official openai-go client.
//
// Streaming is not used: a streaming request yields the complete response
// once it is available.
package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/internal/anthropicllm/converters"
	"github.com/ivanvanderbyl/researchteam/model"
)

// Well-known endpoints.
const (
	OpenAIBaseURL   = "https://api.openai.com/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"
)

// DefaultRequestTimeout bounds each attempt. Reasoning models can take a
// while to answer.
const DefaultRequestTimeout = 2 * time.Minute

// Config holds configuration for an OpenAI-compatible model.
type Config struct {
	APIKey  string
	BaseURL string
	// HTTPClient replaces the client's default transport. Optional.
	HTTPClient *http.Client
	// MaxRetries overrides the client's retry budget for 408, 409, 429 and
	// 5xx responses when positive. Negative disables retries.
	MaxRetries int
	// RequestTimeout defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
}

type compatModel struct {
	name        string
	completions openai.ChatCompletionService
}

// NewModel returns [model.LLM] for the named model at cfg.BaseURL.
func NewModel(modelName string, cfg *Config) (model.LLM, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required for %s", modelName)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	// The service is built from explicit options only, so nothing is read
	// from the environment.
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	switch {
	case cfg.MaxRetries > 0:
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	case cfg.MaxRetries < 0:
		opts = append(opts, option.WithMaxRetries(0))
	}
	return &compatModel{
		name:        modelName,
		completions: openai.NewChatCompletionService(opts...),
	}, nil
}

func (m *compatModel) Name() string {
	return m.name
}

// GenerateContent calls the chat completions endpoint.
func (m *compatModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *compatModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params, err := m.convertRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to convert request: %w", err)
	}
	cc, err := m.completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", m.name, err)
	}
	out := toLLMResponse(cc)
	out.TurnComplete = true
	return out, nil
}

func (m *compatModel) convertRequest(req *model.LLMRequest) (openai.ChatCompletionNewParams, error) {
	name := m.name
	if req.Model != "" {
		name = req.Model
	}
	params := openai.ChatCompletionNewParams{Model: openai.ChatModel(name)}

	if cfg := req.Config; cfg != nil {
		if text := contentText(cfg.SystemInstruction); text != "" {
			params.Messages = append(params.Messages, openai.SystemMessage(text))
		}
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(float64(*cfg.Temperature))
		}
		if cfg.TopP != nil {
			params.TopP = openai.Float(float64(*cfg.TopP))
		}
		if cfg.MaxOutputTokens > 0 {
			params.MaxTokens = openai.Int(int64(cfg.MaxOutputTokens))
		}
		if len(cfg.StopSequences) > 0 {
			params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: cfg.StopSequences}
		}
		params.Tools = toolParams(cfg.Tools)
	}

	for i, c := range req.Contents {
		msgs, err := contentToMessages(c)
		if err != nil {
			return params, fmt.Errorf("content %d: %w", i, err)
		}
		params.Messages = append(params.Messages, msgs...)
	}
	return params, nil
}

// toolParams declares every function of tools. Provider-native tools have no
// chat completions equivalent and are skipped.
func toolParams(tools []*genai.Tool) []openai.ChatCompletionToolParam {
	var out []openai.ChatCompletionToolParam
	for _, t := range tools {
		if t == nil {
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			if fd == nil {
				continue
			}
			def := openai.FunctionDefinitionParam{
				Name:       fd.Name,
				Parameters: openai.FunctionParameters(converters.ParametersSchema(fd)),
			}
			if fd.Description != "" {
				def.Description = openai.String(fd.Description)
			}
			out = append(out, openai.ChatCompletionToolParam{Function: def})
		}
	}
	return out
}

// contentToMessages converts one content. Function responses each become a
// separate tool message.
func contentToMessages(c *genai.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	if c == nil {
		return nil, nil
	}
	var (
		msgs  []openai.ChatCompletionMessageParamUnion
		text  strings.Builder
		calls []openai.ChatCompletionMessageToolCallParam
	)
	for _, p := range c.Parts {
		switch {
		case p == nil, p.Thought:
		case p.FunctionResponse != nil:
			data, err := json.Marshal(p.FunctionResponse.Response)
			if err != nil {
				return nil, fmt.Errorf("marshal result of %s: %w", p.FunctionResponse.Name, err)
			}
			msgs = append(msgs, openai.ToolMessage(string(data), p.FunctionResponse.ID))
		case p.FunctionCall != nil:
			args, err := json.Marshal(p.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("marshal args of %s: %w", p.FunctionCall.Name, err)
			}
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID: p.FunctionCall.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      p.FunctionCall.Name,
					Arguments: string(args),
				},
			})
		case p.Text != "":
			text.WriteString(p.Text)
		case p.InlineData != nil, p.FileData != nil:
			return nil, fmt.Errorf("binary parts are not supported")
		}
	}
	if len(msgs) > 0 {
		return msgs, nil
	}

	switch c.Role {
	case "user":
		if text.Len() == 0 {
			return nil, nil
		}
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(text.String())}, nil
	case "model", "assistant":
		if text.Len() == 0 && len(calls) == 0 {
			return nil, nil
		}
		var msg openai.ChatCompletionAssistantMessageParam
		if text.Len() > 0 {
			msg.Content.OfString = openai.String(text.String())
		}
		msg.ToolCalls = calls
		return []openai.ChatCompletionMessageParamUnion{{OfAssistant: &msg}}, nil
	}
	return nil, fmt.Errorf("unsupported role %q", c.Role)
}

func contentText(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func toLLMResponse(cc *openai.ChatCompletion) *model.LLMResponse {
	if len(cc.Choices) == 0 {
		return &model.LLMResponse{ErrorCode: "EMPTY_RESPONSE", ErrorMessage: "no choices returned"}
	}
	choice := cc.Choices[0]
	msg := choice.Message
	content := &genai.Content{Role: "model"}
	// DeepSeek reasoning models return their chain of thought next to the
	// answer.
	if f, ok := msg.JSON.ExtraFields["reasoning_content"]; ok {
		if r := gjson.Parse(f.Raw()).String(); r != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: r, Thought: true})
		}
	}
	if msg.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return &model.LLMResponse{
					ErrorCode:    "MALFORMED_FUNCTION_CALL",
					ErrorMessage: fmt.Sprintf("arguments of %s: %v", tc.Function.Name, err),
				}
			}
		}
		content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
			ID: tc.ID, Name: tc.Function.Name, Args: args,
		}})
	}

	resp := &model.LLMResponse{
		Content:      content,
		FinishReason: finishReason(choice.FinishReason),
	}
	if u := cc.Usage; u.TotalTokens > 0 {
		resp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(u.PromptTokens),
			CandidatesTokenCount: int32(u.CompletionTokens),
			TotalTokenCount:      int32(u.TotalTokens),
		}
	}
	return resp
}

func finishReason(r string) genai.FinishReason {
	switch r {
	case "stop", "tool_calls", "function_call":
		return genai.FinishReasonStop
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}
