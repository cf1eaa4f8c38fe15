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

// Package modeltest provides scripted [model.LLM] implementations for tests.
package modeltest

import (
	"context"
	"iter"
	"sync"

	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
)

// Model replays a fixed list of responses, one per call, and records every
// request it receives. Once the script runs out the last response repeats.
type Model struct {
	ModelName string
	Responses []*model.LLMResponse
	// Err, when set, is returned from every call instead of a response.
	Err error

	mu       sync.Mutex
	requests []*model.LLMRequest
}

// TextResponse builds a final model response holding text.
func TextResponse(text string) *model.LLMResponse {
	return &model.LLMResponse{
		Content:      genai.NewContentFromText(text, genai.RoleModel),
		FinishReason: genai.FinishReasonStop,
	}
}

// CallResponse builds a model response requesting the given function calls.
func CallResponse(calls ...*genai.FunctionCall) *model.LLMResponse {
	parts := make([]*genai.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, &genai.Part{FunctionCall: c})
	}
	return &model.LLMResponse{
		Content:      genai.NewContentFromParts(parts, genai.RoleModel),
		FinishReason: genai.FinishReasonStop,
	}
}

// Text returns a Model that answers every request with text.
func Text(text string) *Model {
	return &Model{ModelName: "fake", Responses: []*model.LLMResponse{TextResponse(text)}}
}

func (m *Model) Name() string {
	if m.ModelName == "" {
		return "fake"
	}
	return m.ModelName
}

// GenerateContent implements [model.LLM].
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		m.mu.Lock()
		n := len(m.requests)
		m.requests = append(m.requests, req)
		m.mu.Unlock()

		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		if m.Err != nil {
			yield(nil, m.Err)
			return
		}
		if len(m.Responses) == 0 {
			return
		}
		if n >= len(m.Responses) {
			n = len(m.Responses) - 1
		}
		yield(m.Responses[n], nil)
	}
}

// Requests returns the requests received so far.
func (m *Model) Requests() []*model.LLMRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.LLMRequest(nil), m.requests...)
}
