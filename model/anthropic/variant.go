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

package anthropic

import "fmt"

// Variant selects the backend serving Claude models.
type Variant string

const (
	// VariantAnthropicAPI calls api.anthropic.com with an API key.
	VariantAnthropicAPI Variant = "ANTHROPIC_API"

	// VariantVertexAI calls Claude on Google Cloud Vertex AI with
	// application default credentials.
	VariantVertexAI Variant = "VERTEX_AI"
)

// VariantFor returns VariantVertexAI when vertex is set.
func VariantFor(vertex bool) Variant {
	if vertex {
		return VariantVertexAI
	}
	return VariantAnthropicAPI
}

func (v Variant) validate() error {
	switch v {
	case VariantAnthropicAPI, VariantVertexAI:
		return nil
	}
	return fmt.Errorf("unknown Anthropic variant %q", string(v))
}
