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

// Package websearch provides web search for research stages: a [Searcher]
// backed by Google Programmable Search, and a function tool exposing any
// Searcher to a model as "search_google".
package websearch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Result is one search hit. Results are returned in rank order.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher performs web searches.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// DefaultNumResults is the number of results requested per query.
const DefaultNumResults = 10

// GoogleConfig configures a [Google] searcher.
type GoogleConfig struct {
	APIKey         string
	SearchEngineID string
	// NumResults is clamped to the API's 1..10 range. Zero means
	// DefaultNumResults.
	NumResults int
	// QPS limits outgoing queries per second. Zero means unlimited.
	QPS float64
	// Endpoint overrides the API endpoint.
	Endpoint string
}

// Google searches with the Custom Search JSON API.
type Google struct {
	svc     *customsearch.Service
	cx      string
	num     int64
	limiter *rate.Limiter
}

// NewGoogle creates a Google Programmable Search client.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	if cfg.APIKey == "" || cfg.SearchEngineID == "" {
		return nil, errors.New("google search requires GOOGLE_API_KEY and SEARCH_ENGINE_ID")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create custom search service: %w", err)
	}

	num := cfg.NumResults
	switch {
	case num <= 0:
		num = DefaultNumResults
	case num > 10:
		num = 10
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), 1)
	}
	return &Google{svc: svc, cx: cfg.SearchEngineID, num: int64(num), limiter: limiter}, nil
}

// Search implements [Searcher].
func (g *Google) Search(ctx context.Context, query string) ([]Result, error) {
	if query == "" {
		return nil, errors.New("empty search query")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(g.num).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google search %q: %w", query, err)
	}
	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
