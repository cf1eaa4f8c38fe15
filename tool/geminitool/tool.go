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

// Package geminitool provides provider-native tools. They are described by
// [genai.Tool] values and run by the model provider, so the pipeline never
// executes them itself.
//
// GoogleSearch is understood by Gemini directly and by the Anthropic backend,
// which maps it to Anthropic's server-side web search.
package geminitool

import (
	"context"
	"errors"
	"reflect"

	"google.golang.org/genai"

	"github.com/ivanvanderbyl/researchteam/model"
	"github.com/ivanvanderbyl/researchteam/tool"
)

// GoogleSearch grounds responses in live search results.
var GoogleSearch = New("google_search", "Search the web through the model provider.",
	&genai.Tool{GoogleSearch: &genai.GoogleSearch{}})

var errNilRequest = errors.New("geminitool: nil request")

// Native is a tool the provider runs server side.
type Native struct {
	name, desc string
	decl       *genai.Tool
}

var _ tool.RequestProcessor = (*Native)(nil)

// New returns a native tool. desc defaults to name.
func New(name, desc string, decl *genai.Tool) *Native {
	if desc == "" {
		desc = name
	}
	return &Native{name: name, desc: desc, decl: decl}
}

func (n *Native) Name() string        { return n.name }
func (n *Native) Description() string { return n.desc }

// ProcessRequest adds the tool to req's config. A request that already
// carries an equal tool is left alone, so a capability may process the same
// request more than once across tool-call rounds.
func (n *Native) ProcessRequest(_ context.Context, req *model.LLMRequest) error {
	if req == nil {
		return errNilRequest
	}
	if req.Config == nil {
		req.Config = &genai.GenerateContentConfig{}
	}
	for _, t := range req.Config.Tools {
		if reflect.DeepEqual(t, n.decl) {
			return nil
		}
	}
	req.Config.Tools = append(req.Config.Tools, n.decl)
	return nil
}
