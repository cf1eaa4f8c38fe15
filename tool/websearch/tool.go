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

package websearch

import (
	"context"

	"github.com/ivanvanderbyl/researchteam/tool"
	"github.com/ivanvanderbyl/researchteam/tool/functiontool"
)

// ToolName is the name models use to call the search tool.
const ToolName = "search_google"

type searchArgs struct {
	Query string `json:"query" jsonschema:"the search query"`
}

type searchOutput struct {
	Results []Result `json:"results"`
}

// NewTool exposes s as a function tool.
func NewTool(s Searcher) (tool.Function, error) {
	return functiontool.New(functiontool.Config{
		Name:        ToolName,
		Description: "Search the web with Google and return the top results as title, url and snippet.",
	}, func(ctx context.Context, in searchArgs) (searchOutput, error) {
		results, err := s.Search(ctx, in.Query)
		if err != nil {
			return searchOutput{}, err
		}
		return searchOutput{Results: results}, nil
	})
}
