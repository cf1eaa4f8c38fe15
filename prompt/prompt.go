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

// Package prompt renders the system instructions of pipeline roles.
//
// Templates use {{name}} placeholders and {{#if name}}...{{/if}} blocks.
// Every placeholder must be bound: a template never renders with an unfilled
// slot, and values are inserted verbatim without being re-expanded.
package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	varRe      = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)
	ifOpenRe   = regexp.MustCompile(`\{\{#if\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)
	ifCloseStr = "{{/if}}"
)

// Vars maps slot names to values.
type Vars map[string]string

// Merge returns a copy of v overlaid with other.
func (v Vars) Merge(other Vars) Vars {
	out := make(Vars, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}

// Template is the system instruction of a role.
type Template struct {
	// Role is the role name, rendered as the first line.
	Role string
	// Instructions is the template body.
	Instructions string
	// Slots lists variables that must be supplied with a non-empty value,
	// in addition to every variable the body references outside a
	// conditional block.
	Slots []string
}

// MissingVarsError reports unbound template variables.
type MissingVarsError struct {
	Role  string
	Names []string
}

func (e *MissingVarsError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("missing template variables: %s", strings.Join(e.Names, ", "))
	}
	return fmt.Sprintf("%s: missing template variables: %s", e.Role, strings.Join(e.Names, ", "))
}

// Render renders t with vars.
func (t Template) Render(vars Vars) (string, error) {
	var missing []string
	for _, s := range t.Slots {
		if vars[s] == "" {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return "", &MissingVarsError{Role: t.Role, Names: missing}
	}

	body, err := Render(t.Instructions, vars)
	if err != nil {
		if me, ok := err.(*MissingVarsError); ok {
			me.Role = t.Role
		}
		return "", err
	}
	if t.Role == "" {
		return body, nil
	}
	return "Role: " + t.Role + "\n\n" + body, nil
}

// Variables returns the sorted names referenced by t, including its slots
// and conditional variables.
func (t Template) Variables() []string {
	seen := map[string]bool{}
	for _, s := range t.Slots {
		seen[s] = true
	}
	for _, re := range []*regexp.Regexp{varRe, ifOpenRe} {
		for _, m := range re.FindAllStringSubmatch(t.Instructions, -1) {
			seen[m[1]] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render expands a template string with the given variables.
// {{variable}} is replaced with its value. Missing variables cause a
// [*MissingVarsError]. {{#if variable}}...{{/if}} blocks are included only if
// the variable is non-empty.
func Render(tmpl string, vars Vars) (string, error) {
	result, err := processConditionals(tmpl, vars)
	if err != nil {
		return "", err
	}

	var missing []string
	expanded := varRe.ReplaceAllStringFunc(result, func(match string) string {
		name := varRe.FindStringSubmatch(match)[1]
		if val, ok := vars[name]; ok {
			return val
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", &MissingVarsError{Names: missing}
	}
	return expanded, nil
}

// processConditionals resolves {{#if}} blocks innermost first: the block
// closed by the first {{/if}} is the one opened by the last {{#if}} before it.
func processConditionals(tmpl string, vars Vars) (string, error) {
	result := tmpl
	for {
		closeIdx := strings.Index(result, ifCloseStr)
		if closeIdx == -1 {
			break
		}

		prefix := result[:closeIdx]
		openLocs := ifOpenRe.FindAllStringSubmatchIndex(prefix, -1)
		if openLocs == nil {
			return "", fmt.Errorf("dangling {{/if}} without matching {{#if}}")
		}
		loc := openLocs[len(openLocs)-1]
		openStart, openEnd := loc[0], loc[1]
		name := prefix[loc[2]:loc[3]]

		var body string
		if vars[name] != "" {
			body = result[openEnd:closeIdx]
		}
		result = result[:openStart] + body + result[closeIdx+len(ifCloseStr):]
	}

	if loc := ifOpenRe.FindString(result); loc != "" {
		return "", fmt.Errorf("unclosed conditional block: %s", loc)
	}
	return result, nil
}
