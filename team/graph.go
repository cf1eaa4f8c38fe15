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

package team

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
)

// Graph renders the team as a Graphviz digraph: the task flows through every
// stage in order, through the judge when there is one, into the report.
// Tools hang off the stages that use them.
func Graph(def Definition) (string, error) {
	name := def.Name
	if name == "" {
		name = "team"
	}
	g := gographviz.NewEscape()
	if err := g.SetName(name); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	if err := g.AddAttr(name, "rankdir", "LR"); err != nil {
		return "", err
	}
	if err := g.AddNode(name, "task", map[string]string{"shape": "note", "label": "Task"}); err != nil {
		return "", err
	}

	prev := "task"
	tools := map[string]bool{}
	for i, s := range def.Stages {
		id := fmt.Sprintf("stage%d", i)
		if err := g.AddNode(name, id, map[string]string{
			"shape": "box",
			"label": s.Name + `\n` + s.Model,
		}); err != nil {
			return "", err
		}
		if err := g.AddEdge(prev, id, true, nil); err != nil {
			return "", err
		}
		for _, t := range s.Tools {
			tid := "tool_" + t
			if !tools[t] {
				tools[t] = true
				if err := g.AddNode(name, tid, map[string]string{"shape": "component", "label": t}); err != nil {
					return "", err
				}
			}
			if err := g.AddEdge(id, tid, true, map[string]string{"style": "dashed"}); err != nil {
				return "", err
			}
		}
		prev = id
	}

	if j := def.Judge; j != nil {
		label := j.Name
		if label == "" {
			label = "Judge"
		}
		if err := g.AddNode(name, "judge", map[string]string{
			"shape": "diamond",
			"label": label + `\n` + j.Model,
		}); err != nil {
			return "", err
		}
		if err := g.AddEdge(prev, "judge", true, nil); err != nil {
			return "", err
		}
		prev = "judge"
	}

	if err := g.AddNode(name, "report", map[string]string{"shape": "note", "label": "Report"}); err != nil {
		return "", err
	}
	if err := g.AddEdge(prev, "report", true, nil); err != nil {
		return "", err
	}
	return g.String(), nil
}
