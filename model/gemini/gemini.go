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

// Package gemini implements the [model.LLM] interface for Gemini models using
// the [genai] client. Grounding metadata from Google Search is preserved on
// the responses.
package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
)

// Config holds configuration for creating a Gemini model.
type Config struct {
	// APIKey is the Gemini API key (GEMINI_API_KEY or GOOGLE_API_KEY).
	APIKey string
	// BaseURL overrides the API endpoint.
	BaseURL string
}

type geminiModel struct {
	client *genai.Client
	name   string
}

// NewModel returns [model.LLM], backed by the Gemini API.
func NewModel(ctx context.Context, modelName string, cfg *Config) (model.LLM, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required for Gemini (set GEMINI_API_KEY)")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiModel{client: client, name: modelName}, nil
}

func (m *geminiModel) Name() string {
	return m.name
}

// GenerateContent calls the Gemini model.
func (m *geminiModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	name := m.name
	if req.Model != "" {
		name = req.Model
	}

	if stream {
		return m.generateStream(ctx, name, req)
	}

	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.client.Models.GenerateContent(ctx, name, req.Contents, req.Config)
		if err != nil {
			yield(nil, fmt.Errorf("failed to call model: %w", err))
			return
		}
		out := CreateResponse(resp)
		out.TurnComplete = true
		yield(out, nil)
	}
}

// generateStream forwards text chunks as partial responses and finishes with
// a response that aggregates every chunk.
func (m *geminiModel) generateStream(ctx context.Context, name string, req *model.LLMRequest) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		final := &model.LLMResponse{Content: &genai.Content{Role: "model"}}
		for chunk, err := range m.client.Models.GenerateContentStream(ctx, name, req.Contents, req.Config) {
			if err != nil {
				yield(nil, fmt.Errorf("stream error: %w", err))
				return
			}
			resp := CreateResponse(chunk)
			if resp.ErrorCode != "" {
				yield(resp, nil)
				return
			}
			merge(final, resp)
			resp.Partial = true
			if !yield(resp, nil) {
				return
			}
		}
		final.TurnComplete = true
		yield(final, nil)
	}
}

func merge(dst, chunk *model.LLMResponse) {
	if chunk.Content != nil {
		for _, p := range chunk.Content.Parts {
			n := len(dst.Content.Parts)
			// Adjacent text chunks of the same kind are joined into one part.
			if n > 0 && p.Text != "" && p.FunctionCall == nil {
				last := dst.Content.Parts[n-1]
				if last.Text != "" && last.FunctionCall == nil && last.Thought == p.Thought {
					last.Text += p.Text
					continue
				}
			}
			cp := *p
			dst.Content.Parts = append(dst.Content.Parts, &cp)
		}
	}
	if chunk.GroundingMetadata != nil {
		dst.GroundingMetadata = chunk.GroundingMetadata
	}
	if chunk.CitationMetadata != nil {
		dst.CitationMetadata = chunk.CitationMetadata
	}
	if chunk.UsageMetadata != nil {
		dst.UsageMetadata = chunk.UsageMetadata
	}
	if chunk.FinishReason != "" {
		dst.FinishReason = chunk.FinishReason
	}
}

// CreateResponse converts a genai response, using its first candidate.
func CreateResponse(res *genai.GenerateContentResponse) *model.LLMResponse {
	if res == nil {
		return &model.LLMResponse{ErrorCode: "UNKNOWN_ERROR", ErrorMessage: "nil response received"}
	}
	if len(res.Candidates) == 0 || res.Candidates[0] == nil {
		if pf := res.PromptFeedback; pf != nil && pf.BlockReason != "" {
			return &model.LLMResponse{
				ErrorCode:     string(pf.BlockReason),
				ErrorMessage:  pf.BlockReasonMessage,
				UsageMetadata: res.UsageMetadata,
			}
		}
		return &model.LLMResponse{
			ErrorCode:     "UNKNOWN_ERROR",
			ErrorMessage:  "unknown error",
			UsageMetadata: res.UsageMetadata,
		}
	}

	c := res.Candidates[0]
	resp := &model.LLMResponse{
		Content:           c.Content,
		CitationMetadata:  c.CitationMetadata,
		GroundingMetadata: c.GroundingMetadata,
		UsageMetadata:     res.UsageMetadata,
		FinishReason:      c.FinishReason,
	}
	if c.Content == nil && c.FinishReason != "" && c.FinishReason != genai.FinishReasonStop {
		resp.ErrorCode = string(c.FinishReason)
		resp.ErrorMessage = c.FinishMessage
	}
	return resp
}
