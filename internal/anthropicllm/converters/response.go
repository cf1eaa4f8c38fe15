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
	"encoding/base64"
	"encoding/json"
	"net/url"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
)

// MessageToLLMResponse converts a complete Anthropic message.
//
// Server-side web searches run inside the Anthropic turn, so they are not
// surfaced as function calls. Their queries and result pages are reported
// through the response's grounding metadata instead.
func MessageToLLMResponse(msg *anthropic.Message) *model.LLMResponse {
	if msg == nil {
		return &model.LLMResponse{ErrorCode: "UNKNOWN_ERROR", ErrorMessage: "nil message received"}
	}

	content := &genai.Content{Role: "model"}
	var (
		citations []*genai.Citation
		grounding genai.GroundingMetadata
	)
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.ServerToolUseBlock:
			if q := serverToolQuery(v); q != "" {
				grounding.WebSearchQueries = append(grounding.WebSearchQueries, q)
			}
			continue
		case anthropic.WebSearchToolResultBlock:
			grounding.GroundingChunks = append(grounding.GroundingChunks, webSearchChunks(v)...)
			continue
		case anthropic.TextBlock:
			citations = append(citations, textCitations(v.Citations)...)
		}
		if part := ContentBlockToGenaiPart(block); part != nil {
			content.Parts = append(content.Parts, part)
		}
	}

	resp := &model.LLMResponse{
		Content:       content,
		UsageMetadata: UsageToMetadata(msg.Usage),
		FinishReason:  StopReasonToFinishReason(msg.StopReason),
	}
	if len(citations) > 0 {
		resp.CitationMetadata = &genai.CitationMetadata{Citations: citations}
	}
	if len(grounding.WebSearchQueries) > 0 || len(grounding.GroundingChunks) > 0 {
		resp.GroundingMetadata = &grounding
	}
	return resp
}

// ContentBlockToGenaiPart converts a text, thinking or client tool use block.
// Other block kinds yield nil.
func ContentBlockToGenaiPart(block anthropic.ContentBlockUnion) *genai.Part {
	switch v := block.AsAny().(type) {
	case anthropic.TextBlock:
		return &genai.Part{Text: v.Text}
	case anthropic.ThinkingBlock:
		signature, _ := base64.StdEncoding.DecodeString(v.Signature)
		return &genai.Part{Text: v.Thinking, Thought: true, ThoughtSignature: signature}
	case anthropic.RedactedThinkingBlock:
		return &genai.Part{Text: "[thinking redacted]", Thought: true}
	case anthropic.ToolUseBlock:
		args := map[string]any{}
		if len(v.Input) > 0 {
			_ = json.Unmarshal(v.Input, &args)
		}
		return &genai.Part{FunctionCall: &genai.FunctionCall{ID: v.ID, Name: v.Name, Args: args}}
	}
	return nil
}

func serverToolQuery(block anthropic.ServerToolUseBlock) string {
	data, err := json.Marshal(block.Input)
	if err != nil {
		return ""
	}
	var input struct {
		Query string `json:"query"`
	}
	_ = json.Unmarshal(data, &input)
	return input.Query
}

func webSearchChunks(block anthropic.WebSearchToolResultBlock) []*genai.GroundingChunk {
	results := block.Content.AsWebSearchResultBlockArray()
	chunks := make([]*genai.GroundingChunk, 0, len(results))
	for _, r := range results {
		web := &genai.GroundingChunkWeb{Title: r.Title, URI: r.URL}
		if u, err := url.Parse(r.URL); err == nil {
			web.Domain = u.Hostname()
		}
		chunks = append(chunks, &genai.GroundingChunk{Web: web})
	}
	return chunks
}

func textCitations(in []anthropic.TextCitationUnion) []*genai.Citation {
	out := make([]*genai.Citation, 0, len(in))
	for _, c := range in {
		citation := &genai.Citation{Title: c.DocumentTitle}
		switch c.Type {
		case "char_location":
			citation.StartIndex = int32(c.StartCharIndex)
			citation.EndIndex = int32(c.EndCharIndex)
		case "web_search_result_location":
			citation.Title = c.Title
			citation.URI = c.URL
		case "search_result_location":
			citation.Title = c.Title
		}
		out = append(out, citation)
	}
	return out
}

// UsageToMetadata converts Anthropic token usage.
func UsageToMetadata(usage anthropic.Usage) *genai.GenerateContentResponseUsageMetadata {
	return &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     int32(usage.InputTokens),
		CandidatesTokenCount: int32(usage.OutputTokens),
		TotalTokenCount:      int32(usage.InputTokens + usage.OutputTokens),
	}
}

// StopReasonToFinishReason maps an Anthropic stop reason.
func StopReasonToFinishReason(sr anthropic.StopReason) genai.FinishReason {
	switch sr {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, anthropic.StopReasonToolUse:
		return genai.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		return genai.FinishReasonMaxTokens
	default:
		return genai.FinishReasonUnspecified
	}
}

// PartialText builds a streamed chunk of text or, with thought set, thinking.
func PartialText(text string, thought bool) *model.LLMResponse {
	return &model.LLMResponse{
		Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text, Thought: thought}}},
		Partial: true,
	}
}
