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

import "net/http"

// Config holds configuration for creating an Anthropic Claude model.
// Values come from the caller; the package never reads the environment.
type Config struct {
	// APIKey is the Anthropic API key. Only used with VariantAnthropicAPI.
	APIKey string

	// VertexProjectID and VertexRegion select the Google Cloud project and
	// region when Variant is VariantVertexAI. Common regions include
	// "us-east5" and "europe-west1".
	VertexProjectID string
	VertexRegion    string

	// Variant determines which backend to use for API calls.
	// Empty means VariantAnthropicAPI.
	Variant Variant

	// DefaultMaxTokens is the default maximum number of tokens to generate.
	// Anthropic requires max_tokens on every request. Defaults to 4096.
	DefaultMaxTokens int

	// BaseURL overrides the API endpoint of the direct API client.
	BaseURL string

	// HTTPClient, when set, is used for direct API requests.
	HTTPClient *http.Client

	// MaxRetries overrides the SDK's retry count when positive.
	MaxRetries int
}
