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

package llmagent

import (
	"strings"

	"google.golang.org/genai"
)

// references collects the web sources a model grounded its answers on,
// across every round of one run, keeping first-seen order.
type references struct {
	seen    map[string]bool
	entries []string
}

func (r *references) add(gm *genai.GroundingMetadata) {
	if gm == nil {
		return
	}
	for _, chunk := range gm.GroundingChunks {
		var title, uri string
		switch {
		case chunk.Web != nil:
			title, uri = chunk.Web.Title, chunk.Web.URI
			if title == "" {
				title = chunk.Web.Domain
			}
		case chunk.RetrievedContext != nil:
			title, uri = chunk.RetrievedContext.Title, chunk.RetrievedContext.URI
		default:
			continue
		}
		if uri == "" || r.seen[uri] {
			continue
		}
		if r.seen == nil {
			r.seen = make(map[string]bool)
		}
		r.seen[uri] = true
		if title == "" {
			r.entries = append(r.entries, "* "+uri)
		} else {
			r.entries = append(r.entries, "* "+title+": "+uri)
		}
	}
}

// appendTo appends a markdown reference list to text.
func (r *references) appendTo(text string) string {
	if len(r.entries) == 0 {
		return text
	}
	return strings.TrimRight(text, "\n") + "\n\nReferences:\n\n" + strings.Join(r.entries, "\n")
}
