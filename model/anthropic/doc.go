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

// Package anthropic implements the [model.LLM] interface for Anthropic Claude
// models, through either the direct Anthropic API or Google Cloud Vertex AI.
//
// Direct API:
//
//	llm, err := anthropic.NewModel(ctx, "claude-sonnet-4-5", &anthropic.Config{
//		APIKey: cfg.AnthropicAPIKey,
//	})
//
// Vertex AI:
//
//	llm, err := anthropic.NewModel(ctx, "claude-sonnet-4-5@20250929", &anthropic.Config{
//		Variant:         anthropic.VariantVertexAI,
//		VertexProjectID: cfg.GoogleCloudProject,
//		VertexRegion:    cfg.GoogleCloudRegion,
//	})
//
// Requests carrying a [genai.GoogleSearch] tool enable Anthropic's server-side
// web search. The pages it consults are reported in the response's grounding
// metadata rather than as function calls, so callers never execute them.
//
// Extended thinking is mapped to parts with Thought set. Binary inputs are
// not supported.
package anthropic
