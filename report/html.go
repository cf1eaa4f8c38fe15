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

package report

import (
	"bytes"
	"context"

	"github.com/google/safehtml/template"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Research Report: {{.Query}}</title>
<style>
body { font-family: sans-serif; max-width: 50em; margin: 2em auto; line-height: 1.5; }
pre { white-space: pre-wrap; font-family: inherit; }
.meta { color: #666; }
</style>
</head>
<body>
<h1>Research Report: {{.Query}}</h1>
<p class="meta">Generated on: {{.GeneratedAt}}{{if .TaskID}} · Task {{.TaskID}}{{end}}</p>
<pre>{{.Result}}</pre>
</body>
</html>
`

var page = template.Must(template.New("report").Parse(pageTemplate))

// HTMLSink writes each record as a standalone, escaped HTML page.
type HTMLSink struct {
	Dir string
}

func NewHTMLSink(dir string) *HTMLSink {
	if dir == "" {
		dir = DefaultDir
	}
	return &HTMLSink{Dir: dir}
}

// Save renders the record to Dir/<BaseName>.html.
func (s *HTMLSink) Save(ctx context.Context, rec Record) (string, error) {
	data, err := RenderHTML(rec)
	if err != nil {
		return "", &PersistenceError{Sink: "html", Err: err}
	}
	path, err := writeExclusive(s.Dir, BaseName(rec), ".html", data)
	if err != nil {
		return "", &PersistenceError{Sink: "html", Path: path, Err: err}
	}
	return path, nil
}

// RenderHTML renders a record as an HTML page.
func RenderHTML(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		TaskID      string
		Query       string
		Result      string
		GeneratedAt string
	}{
		TaskID:      rec.TaskID,
		Query:       rec.Query,
		Result:      rec.Result,
		GeneratedAt: rec.GeneratedAt.Format(headerTimeLayout),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
