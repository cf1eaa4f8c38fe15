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

package openaicompat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
)

const reasonerReply = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "deepseek-reasoner",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {"role": "assistant", "content": "Final report.", "reasoning_content": "thinking..."}
	}],
	"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
}`

// asJSON round-trips v so request bodies can be compared structurally.
func asJSON(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestGenerateContent(t *testing.T) {
	var body []byte
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, reasonerReply)
	}))
	defer srv.Close()

	llm, err := NewModel("deepseek-reasoner", &Config{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	temp := float32(0.2)
	resp, err := model.Generate(t.Context(), llm, &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("Create the report", "user")},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText("Role: Report Creator", "user"),
			Temperature:       &temp,
			MaxOutputTokens:   512,
			Tools: []*genai.Tool{
				{FunctionDeclarations: []*genai.FunctionDeclaration{{Name: "search_google", Description: "Search the web."}}},
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Text() != "Final report." {
		t.Errorf("Text() = %q, want reasoning excluded", resp.Text())
	}
	if parts := resp.Content.Parts; len(parts) != 2 || !parts[0].Thought || parts[0].Text != "thinking..." {
		t.Errorf("parts = %+v, want the reasoning as a thought part first", parts)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if resp.UsageMetadata == nil || resp.UsageMetadata.TotalTokenCount != 5 {
		t.Errorf("UsageMetadata = %+v", resp.UsageMetadata)
	}

	req := gjson.ParseBytes(body)
	want := []any{
		map[string]any{"role": "system", "content": "Role: Report Creator"},
		map[string]any{"role": "user", "content": "Create the report"},
	}
	if diff := cmp.Diff(want, req.Get("messages").Value()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	for path, want := range map[string]string{
		"model":                            "deepseek-reasoner",
		"max_tokens":                       "512",
		"tools.#":                          "1",
		"tools.0.type":                     "function",
		"tools.0.function.name":            "search_google",
		"tools.0.function.parameters.type": "object",
	} {
		if got := req.Get(path).String(); got != want {
			t.Errorf("request %s = %q, want %q", path, got, want)
		}
	}
	if got := req.Get("temperature").Float(); got < 0.19 || got > 0.21 {
		t.Errorf("temperature = %v", got)
	}
}

func TestGenerateContent_HTTPError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "invalid key", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	llm, err := NewModel("gpt-4o", &Config{APIKey: "bad", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	_, err = model.Generate(t.Context(), llm, &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hi", "user")},
	})
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Generate() error = %v, want a 401 API error", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server called %d times, want 1 (client errors are not retried)", n)
	}
}

func TestGenerateContent_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After-Ms", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error": {"message": "overloaded"}}`)
			return
		}
		io.WriteString(w, reasonerReply)
	}))
	defer srv.Close()

	llm, err := NewModel("deepseek-reasoner", &Config{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	resp, err := model.Generate(t.Context(), llm, &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hi", "user")},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text() != "Final report." || calls.Load() != 2 {
		t.Errorf("Text() = %q after %d calls, want the retried answer after 2", resp.Text(), calls.Load())
	}

	noRetry, err := NewModel("deepseek-reasoner", &Config{APIKey: "sk-test", BaseURL: srv.URL, MaxRetries: -1})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	calls.Store(0)
	if _, err := model.Generate(t.Context(), noRetry, &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hi", "user")},
	}); err == nil {
		t.Error("Generate() with retries disabled succeeded, want the 503")
	}
}

func TestContentToMessages_Tools(t *testing.T) {
	call := &genai.Content{Role: "model", Parts: []*genai.Part{
		{Text: "Searching."},
		{FunctionCall: &genai.FunctionCall{ID: "call_1", Name: "search_google", Args: map[string]any{"query": "go"}}},
	}}
	result := &genai.Content{Role: "user", Parts: []*genai.Part{
		{FunctionResponse: &genai.FunctionResponse{ID: "call_1", Name: "search_google", Response: map[string]any{"count": 1}}},
	}}

	got, err := contentToMessages(call)
	if err != nil {
		t.Fatalf("contentToMessages(call) error = %v", err)
	}
	want := []any{map[string]any{
		"role":    "assistant",
		"content": "Searching.",
		"tool_calls": []any{map[string]any{
			"id":       "call_1",
			"type":     "function",
			"function": map[string]any{"name": "search_google", "arguments": `{"query":"go"}`},
		}},
	}}
	if diff := cmp.Diff(want, asJSON(t, got)); diff != "" {
		t.Errorf("call messages mismatch (-want +got):\n%s", diff)
	}

	got, err = contentToMessages(result)
	if err != nil {
		t.Fatalf("contentToMessages(result) error = %v", err)
	}
	want = []any{map[string]any{"role": "tool", "content": `{"count":1}`, "tool_call_id": "call_1"}}
	if diff := cmp.Diff(want, asJSON(t, got)); diff != "" {
		t.Errorf("result messages mismatch (-want +got):\n%s", diff)
	}

	if _, err := contentToMessages(&genai.Content{Role: "system", Parts: []*genai.Part{{Text: "x"}}}); err == nil {
		t.Error("contentToMessages accepted an unsupported role")
	}
}

func TestToLLMResponse_ToolCalls(t *testing.T) {
	decode := func(s string) *openai.ChatCompletion {
		t.Helper()
		var cc openai.ChatCompletion
		if err := json.Unmarshal([]byte(s), &cc); err != nil {
			t.Fatalf("unmarshal completion: %v", err)
		}
		return &cc
	}

	resp := toLLMResponse(decode(`{"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
		"role": "assistant", "content": null,
		"tool_calls": [{"id": "call_2", "type": "function", "function": {"name": "search_google", "arguments": "{\"query\":\"socrates\"}"}}]
	}}]}`))
	want := []*genai.FunctionCall{{ID: "call_2", Name: "search_google", Args: map[string]any{"query": "socrates"}}}
	if diff := cmp.Diff(want, resp.FunctionCalls()); diff != "" {
		t.Errorf("FunctionCalls() mismatch (-want +got):\n%s", diff)
	}
	if resp.FinishReason != genai.FinishReasonStop {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}

	bad := decode(`{"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {"role": "assistant",
		"tool_calls": [{"id": "c", "type": "function", "function": {"name": "x", "arguments": "{not json"}}]}}]}`)
	if resp := toLLMResponse(bad); resp.ErrorCode != "MALFORMED_FUNCTION_CALL" {
		t.Errorf("ErrorCode = %q, want MALFORMED_FUNCTION_CALL", resp.ErrorCode)
	}

	if resp := toLLMResponse(decode(`{"choices": []}`)); resp.ErrorCode != "EMPTY_RESPONSE" {
		t.Errorf("ErrorCode = %q, want EMPTY_RESPONSE", resp.ErrorCode)
	}
}
