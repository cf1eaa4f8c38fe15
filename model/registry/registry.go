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

// Package registry resolves "provider:model" references, such as
// "anthropic:claude-sonnet-4-5" or "deepseek:deepseek-reasoner", to
// [model.LLM] values.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/ivanvanderbyl/researchteam/model"
	"github.com/ivanvanderbyl/researchteam/model/anthropic"
	"github.com/ivanvanderbyl/researchteam/model/gemini"
	"github.com/ivanvanderbyl/researchteam/model/openaicompat"
)

// Providers.
const (
	Anthropic = "anthropic"
	Gemini    = "gemini"
	OpenAI    = "openai"
	DeepSeek  = "deepseek"
)

// Ref is a parsed model reference.
type Ref struct {
	Provider string
	Model    string
}

func (r Ref) String() string {
	return r.Provider + ":" + r.Model
}

// ParseRef parses "provider:model".
func ParseRef(s string) (Ref, error) {
	provider, name, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || provider == "" || name == "" {
		return Ref{}, fmt.Errorf("invalid model reference %q: want provider:model", s)
	}
	r := Ref{Provider: strings.ToLower(provider), Model: name}
	switch r.Provider {
	case Anthropic, Gemini, OpenAI, DeepSeek:
		return r, nil
	}
	return Ref{}, fmt.Errorf("invalid model reference %q: unknown provider %q", s, provider)
}

// Config carries the credentials for every provider.
type Config struct {
	AnthropicAPIKey string
	// AnthropicVertex routes Anthropic models through Vertex AI using the
	// Google Cloud project and region.
	AnthropicVertex bool
	GoogleProject   string
	GoogleRegion    string

	GeminiAPIKey string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	DeepSeekAPIKey string

	HTTPClient *http.Client
}

// Registry creates models on first use and caches them by reference.
type Registry struct {
	cfg Config

	mu     sync.Mutex
	models map[Ref]model.LLM
}

func New(cfg Config) *Registry {
	return &Registry{cfg: cfg, models: make(map[Ref]model.LLM)}
}

// Resolve returns the model for ref.
func (r *Registry) Resolve(ctx context.Context, ref string) (model.LLM, error) {
	parsed, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.models[parsed]; ok {
		return m, nil
	}
	m, err := r.create(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", parsed, err)
	}
	r.models[parsed] = m
	return m, nil
}

func (r *Registry) create(ctx context.Context, ref Ref) (model.LLM, error) {
	switch ref.Provider {
	case Anthropic:
		cfg := &anthropic.Config{
			APIKey:     r.cfg.AnthropicAPIKey,
			Variant:    anthropic.VariantFor(r.cfg.AnthropicVertex),
			HTTPClient: r.cfg.HTTPClient,
		}
		if r.cfg.AnthropicVertex {
			cfg.VertexProjectID = r.cfg.GoogleProject
			cfg.VertexRegion = r.cfg.GoogleRegion
		}
		return anthropic.NewModel(ctx, anthropicsdk.Model(ref.Model), cfg)
	case Gemini:
		return gemini.NewModel(ctx, ref.Model, &gemini.Config{APIKey: r.cfg.GeminiAPIKey})
	case OpenAI:
		return openaicompat.NewModel(ref.Model, &openaicompat.Config{
			APIKey:     r.cfg.OpenAIAPIKey,
			BaseURL:    r.cfg.OpenAIBaseURL,
			HTTPClient: r.cfg.HTTPClient,
		})
	case DeepSeek:
		return openaicompat.NewModel(ref.Model, &openaicompat.Config{
			APIKey:     r.cfg.DeepSeekAPIKey,
			BaseURL:    openaicompat.DeepSeekBaseURL,
			HTTPClient: r.cfg.HTTPClient,
		})
	}
	return nil, fmt.Errorf("unknown provider %q", ref.Provider)
}

// Credentials returns the environment keys a reference needs. vertex selects
// the Vertex AI variables for Anthropic models.
func Credentials(ref string, vertex bool) ([]string, error) {
	parsed, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	switch parsed.Provider {
	case Anthropic:
		if vertex {
			return []string{"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_REGION"}, nil
		}
		return []string{"ANTHROPIC_API_KEY"}, nil
	case Gemini:
		return []string{"GEMINI_API_KEY"}, nil
	case OpenAI:
		return []string{"OPENAI_API_KEY"}, nil
	default:
		return []string{"DEEPSEEK_API_KEY"}, nil
	}
}
