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

package websearch_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ivanvanderbyl/researchteam/tool/websearch"
)

func TestGoogle_Search(t *testing.T) {
	var gotQuery, gotCx, gotNum, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery, gotCx, gotNum, gotKey = q.Get("q"), q.Get("cx"), q.Get("num"), q.Get("key")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items": [
			{"title": "Socratic method", "link": "https://en.wikipedia.org/wiki/Socratic_method", "snippet": "A form of dialogue"},
			{"title": "Elenchus", "link": "https://plato.stanford.edu/", "snippet": "Cross-examination"}
		]}`)
	}))
	defer srv.Close()

	g, err := websearch.NewGoogle(t.Context(), websearch.GoogleConfig{
		APIKey:         "key",
		SearchEngineID: "engine",
		NumResults:     25,
		Endpoint:       srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("NewGoogle() error = %v", err)
	}

	got, err := g.Search(t.Context(), "socratic method")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []websearch.Result{
		{Title: "Socratic method", URL: "https://en.wikipedia.org/wiki/Socratic_method", Snippet: "A form of dialogue"},
		{Title: "Elenchus", URL: "https://plato.stanford.edu/", Snippet: "Cross-examination"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
	if gotQuery != "socratic method" || gotCx != "engine" || gotKey != "key" {
		t.Errorf("query params q=%q cx=%q key=%q", gotQuery, gotCx, gotKey)
	}
	if gotNum != "10" {
		t.Errorf("num = %q, want clamped to 10", gotNum)
	}
}

func TestNewGoogle_MissingCredentials(t *testing.T) {
	if _, err := websearch.NewGoogle(t.Context(), websearch.GoogleConfig{APIKey: "key"}); err == nil {
		t.Fatal("expected error without a search engine id")
	}
}

type fakeSearcher struct {
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]websearch.Result, error) {
	f.queries = append(f.queries, query)
	return []websearch.Result{{Title: "Qwen", URL: "https://qwenlm.github.io/", Snippet: "Qwen models"}}, nil
}

func TestNewTool(t *testing.T) {
	s := &fakeSearcher{}
	f, err := websearch.NewTool(s)
	if err != nil {
		t.Fatalf("NewTool() error = %v", err)
	}
	if f.Name() != websearch.ToolName {
		t.Errorf("Name() = %q", f.Name())
	}

	out, err := f.Call(t.Context(), map[string]any{"query": "qwen"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	want := map[string]any{"results": []any{
		map[string]any{"title": "Qwen", "url": "https://qwenlm.github.io/", "snippet": "Qwen models"},
	}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Call() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"qwen"}, s.queries); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
}
