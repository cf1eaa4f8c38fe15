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

// Package tool defines the interfaces implemented by tools an LLM-backed
// capability can use.
package tool

import (
	"context"

	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
)

// Tool is anything a model can be given.
type Tool interface {
	Name() string
	Description() string
}

// Function is a tool the model calls by name and the caller executes.
type Function interface {
	Tool
	// Declaration describes the function to the model.
	Declaration() *genai.FunctionDeclaration
	// Call runs the function with arguments chosen by the model.
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// RequestProcessor is implemented by tools that modify the model request
// themselves, such as provider-native tools that the model runs server side.
type RequestProcessor interface {
	ProcessRequest(ctx context.Context, req *model.LLMRequest) error
}
