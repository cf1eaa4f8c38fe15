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

package registry_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ivanvanderbyl/researchteam/model/registry"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    registry.Ref
		wantErr bool
	}{
		{in: "anthropic:claude-sonnet-4-5", want: registry.Ref{Provider: "anthropic", Model: "claude-sonnet-4-5"}},
		{in: " OpenAI:gpt-4o ", want: registry.Ref{Provider: "openai", Model: "gpt-4o"}},
		{in: "deepseek:deepseek-reasoner", want: registry.Ref{Provider: "deepseek", Model: "deepseek-reasoner"}},
		{in: "gpt-4o", wantErr: true},
		{in: "openai:", wantErr: true},
		{in: "mistral:large", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := registry.ParseRef(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseRef(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseRef(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	r := registry.New(registry.Config{
		OpenAIAPIKey:    "sk-test",
		DeepSeekAPIKey:  "ds-test",
		AnthropicAPIKey: "ant-test",
		GeminiAPIKey:    "gem-test",
	})
	for _, ref := range []string{"openai:gpt-4o", "deepseek:deepseek-reasoner", "anthropic:claude-sonnet-4-5", "gemini:gemini-2.5-flash"} {
		m, err := r.Resolve(t.Context(), ref)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", ref, err)
		}
		again, err := r.Resolve(t.Context(), ref)
		if err != nil {
			t.Fatal(err)
		}
		if m != again {
			t.Errorf("Resolve(%q) did not reuse the cached model", ref)
		}
	}
}

func TestResolve_MissingCredentials(t *testing.T) {
	r := registry.New(registry.Config{})
	for _, ref := range []string{"openai:gpt-4o", "deepseek:deepseek-reasoner", "anthropic:claude-sonnet-4-5", "gemini:gemini-2.5-flash"} {
		if _, err := r.Resolve(t.Context(), ref); err == nil {
			t.Errorf("Resolve(%q) succeeded without credentials", ref)
		}
	}
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		ref    string
		vertex bool
		want   []string
	}{
		{ref: "anthropic:claude", want: []string{"ANTHROPIC_API_KEY"}},
		{ref: "anthropic:claude", vertex: true, want: []string{"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_REGION"}},
		{ref: "gemini:gemini-2.5-flash", want: []string{"GEMINI_API_KEY"}},
		{ref: "openai:gpt-4o", want: []string{"OPENAI_API_KEY"}},
		{ref: "deepseek:deepseek-reasoner", want: []string{"DEEPSEEK_API_KEY"}},
	}
	for _, tc := range tests {
		got, err := registry.Credentials(tc.ref, tc.vertex)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Credentials(%q, %v) mismatch (-want +got):\n%s", tc.ref, tc.vertex, diff)
		}
	}
}
