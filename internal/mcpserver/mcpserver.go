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

// Package mcpserver offers the research team as a Model Context Protocol
// tool, so other agents can delegate research to it.
package mcpserver

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ivanvanderbyl/researchteam/runner"
)

// ToolName is the name of the research tool.
const ToolName = "research"

// Researcher runs one request. [*runner.Runner] implements it.
type Researcher interface {
	Run(ctx context.Context, req runner.Request) *runner.Outcome
}

type Input struct {
	Query          string `json:"query" jsonschema:"the research question"`
	AdditionalInfo string `json:"additional_info,omitempty" jsonschema:"extra context or material for the team to use"`
}

type Output struct {
	ID     string `json:"id"`
	Report string `json:"report"`
	// Assessment and Score are set when the team has a quality judge.
	Assessment string   `json:"assessment,omitempty"`
	Score      float64  `json:"score,omitempty"`
	Findings   []string `json:"findings,omitempty"`
	Paths      []string `json:"paths,omitempty"`
}

// New returns an MCP server with the research tool registered.
func New(r Researcher, team, version string) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "researchteam", Version: version}, nil)
	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolName,
		Description: "Research a question with the " + team + " team and return a written report.",
	}, handler(r))
	return s
}

func handler(r Researcher) mcp.ToolHandlerFor[Input, Output] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in Input) (*mcp.CallToolResult, Output, error) {
		query := strings.TrimSpace(in.Query)
		if query == "" {
			return nil, Output{}, errors.New("query is required")
		}
		o := r.Run(ctx, runner.Request{Query: query, AdditionalInfo: in.AdditionalInfo})
		if o.Status != runner.StatusCompleted {
			return nil, Output{}, o.Err
		}
		out := Output{ID: o.ID, Report: o.Task.Result, Paths: o.Paths}
		if v := o.Verdict(); v != nil {
			out.Assessment = string(v.Assessment)
			out.Score = v.Score
			out.Findings = v.Findings
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: o.Task.Result}},
		}, out, nil
	}
}

// Serve runs the server over stdin and stdout until the client disconnects
// or ctx is done.
func Serve(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}
