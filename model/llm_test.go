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

package model_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
	"github.com/ivanvanderbyl/researchteam/model/modeltest"
)

func TestGenerate_ReturnsFinalResponse(t *testing.T) {
	llm := modeltest.Text("hello")

	resp, err := model.Generate(t.Context(), llm, &model.LLMRequest{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got := resp.Text(); got != "hello" {
		t.Errorf("Text() = %q, want %q", got, "hello")
	}
}

func TestGenerate_ErrorResponse(t *testing.T) {
	llm := &modeltest.Model{Responses: []*model.LLMResponse{{ErrorCode: "RATE_LIMIT", ErrorMessage: "slow down"}}}

	_, err := model.Generate(t.Context(), llm, &model.LLMRequest{})
	var respErr *model.ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("Generate() error = %v, want *ResponseError", err)
	}
	if respErr.Code != "RATE_LIMIT" {
		t.Errorf("Code = %q, want RATE_LIMIT", respErr.Code)
	}
}

func TestGenerate_NoResponse(t *testing.T) {
	llm := &modeltest.Model{}

	if _, err := model.Generate(t.Context(), llm, &model.LLMRequest{}); !errors.Is(err, model.ErrNoResponse) {
		t.Errorf("Generate() error = %v, want ErrNoResponse", err)
	}
}

func TestLLMResponse_TextSkipsThoughts(t *testing.T) {
	resp := &model.LLMResponse{Content: &genai.Content{
		Role: "model",
		Parts: []*genai.Part{
			{Text: "pondering", Thought: true},
			{Text: "Paris "},
			{Text: "is the capital."},
		},
	}}

	if got, want := resp.Text(), "Paris is the capital."; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestLLMResponse_FunctionCalls(t *testing.T) {
	calls := []*genai.FunctionCall{
		{ID: "1", Name: "search_google", Args: map[string]any{"query": "a"}},
		{ID: "2", Name: "search_google", Args: map[string]any{"query": "b"}},
	}
	resp := modeltest.CallResponse(calls...)

	if diff := cmp.Diff(calls, resp.FunctionCalls()); diff != "" {
		t.Errorf("FunctionCalls() mismatch (-want +got):\n%s", diff)
	}
}
