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

// Package report persists the results of research runs.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	// MaxNameLength bounds the query part of a report name.
	MaxNameLength = 50

	fileTimeLayout   = "20060102_150405"
	headerTimeLayout = "2006-01-02 15:04:05"
)

// Record is one finished run.
type Record struct {
	TaskID      string
	Query       string
	Result      string
	GeneratedAt time.Time
}

// Sink stores a record and returns where it went: a path or a URL.
type Sink interface {
	Save(ctx context.Context, rec Record) (string, error)
}

// PersistenceError reports a failed save. The record itself is unaffected.
type PersistenceError struct {
	Sink string
	// Path is the destination, when one had been chosen.
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: save report: %v", e.Sink, e.Err)
	}
	return fmt.Sprintf("%s: save report to %s: %v", e.Sink, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Sanitize reduces a query to a file name fragment: letters and digits in any
// script, spaces, '-' and '_' survive, the result is cut to MaxNameLength
// characters (not bytes), and spaces become underscores.
func Sanitize(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if n == MaxNameLength {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		default:
			continue
		}
		n++
	}
	return b.String()
}

// BaseName is "<YYYYMMDD_HHMMSS>_<sanitized query>", without extension.
func BaseName(rec Record) string {
	return rec.GeneratedAt.Format(fileTimeLayout) + "_" + Sanitize(rec.Query)
}

// Markdown renders a record as a markdown document: a title with the query,
// the generation time, then the raw result.
func Markdown(rec Record) string {
	return fmt.Sprintf("# Research Report: %s\nGenerated on: %s\n\n%s\n",
		rec.Query, rec.GeneratedAt.Format(headerTimeLayout), rec.Result)
}
