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

// Package model defines the interface every language model backend
// implements, along with the request and response types exchanged with it.
//
// Requests and responses use the content types from [genai] so that backends
// for different providers can be swapped without touching callers.
package model

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"
)

// LLM is a language model that generates content from a request.
type LLM interface {
	Name() string
	// GenerateContent calls the model. With stream set, the sequence yields
	// partial responses followed by a final complete one; otherwise it yields
	// exactly one response.
	GenerateContent(ctx context.Context, req *LLMRequest, stream bool) iter.Seq2[*LLMResponse, error]
}

// LLMRequest is the input to [LLM.GenerateContent].
type LLMRequest struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// LLMResponse is a single response, or a chunk of one when Partial is set.
type LLMResponse struct {
	Content           *genai.Content
	CitationMetadata  *genai.CitationMetadata
	GroundingMetadata *genai.GroundingMetadata
	UsageMetadata     *genai.GenerateContentResponseUsageMetadata
	// Partial marks an incremental chunk of a streamed response.
	Partial bool
	// TurnComplete marks the final response of a streamed turn.
	TurnComplete bool
	FinishReason genai.FinishReason
	ErrorCode    string
	ErrorMessage string
}

// ErrNoResponse is returned by [Generate] when the model yields nothing.
var ErrNoResponse = errors.New("model returned no response")

// ResponseError reports an error response returned by a model.
type ResponseError struct {
	Model   string
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("model %s returned error %s: %s", e.Model, e.Code, e.Message)
}

// Generate calls llm without streaming and returns the final response.
// A response carrying an error code is converted to a [*ResponseError].
func Generate(ctx context.Context, llm LLM, req *LLMRequest) (*LLMResponse, error) {
	var final *LLMResponse
	for resp, err := range llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return nil, err
		}
		if resp == nil || resp.Partial {
			continue
		}
		final = resp
	}
	if final == nil {
		return nil, ErrNoResponse
	}
	if final.ErrorCode != "" {
		return nil, &ResponseError{Model: llm.Name(), Code: final.ErrorCode, Message: final.ErrorMessage}
	}
	return final, nil
}

// Text returns the concatenated text of the response, skipping thoughts.
func (r *LLMResponse) Text() string {
	if r == nil || r.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Content.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// FunctionCalls returns the function calls requested by the response in order.
func (r *LLMResponse) FunctionCalls() []*genai.FunctionCall {
	if r == nil || r.Content == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, p := range r.Content.Parts {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}
