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

// Package runner drives one research run end to end: it builds the task,
// executes the pipeline, persists and prints the report, and records the
// run. It is the recovery boundary for everything below it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/report"
)

// Executor runs a task through a pipeline. [*pipeline.Pipeline] implements
// it.
type Executor interface {
	Execute(ctx context.Context, task *pipeline.Task) (*pipeline.Run, error)
}

// History records finished runs.
type History interface {
	Record(ctx context.Context, o *Outcome) error
}

type Config struct {
	Pipeline Executor
	// Team names the team for history and logs.
	Team string
	// Brief turns the query into the task content. Nil uses the query.
	Brief func(query string) (string, error)
	// Sinks persist successful results, in order.
	Sinks []report.Sink
	// Display receives the human readable report. Nil discards it.
	Display io.Writer
	History History
	Logger  *slog.Logger
	// NewID and Now default to random UUIDs and time.Now.
	NewID func() string
	Now   func() time.Time
}

type Runner struct {
	pipeline Executor
	team     string
	brief    func(string) (string, error)
	sinks    []report.Sink
	display  io.Writer
	history  History
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

func New(cfg Config) (*Runner, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("runner: pipeline is required")
	}
	r := &Runner{
		pipeline: cfg.Pipeline,
		team:     cfg.Team,
		brief:    cfg.Brief,
		sinks:    cfg.Sinks,
		display:  cfg.Display,
		history:  cfg.History,
		logger:   cfg.Logger,
		newID:    cfg.NewID,
		now:      cfg.Now,
	}
	if r.display == nil {
		r.display = io.Discard
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Request is one research question.
type Request struct {
	// ID is generated when empty.
	ID             string
	Query          string
	AdditionalInfo string
}

// Status is the final state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Outcome describes a finished run.
type Outcome struct {
	ID    string
	Team  string
	Query string
	// Task is the executed task. Task.Result holds the report even when
	// persisting it failed.
	Task *pipeline.Task
	// Run is nil if the pipeline never started.
	Run    *pipeline.Run
	Status Status
	// Paths lists where each sink stored the report.
	Paths []string
	// Err is the pipeline failure, or the persistence failures of a
	// completed run.
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Verdict returns the gate's verdict, if there was one.
func (o *Outcome) Verdict() *pipeline.Verdict {
	if o.Run == nil {
		return nil
	}
	return o.Run.Verdict
}

// Run executes req. It never panics and never returns nil: failures are
// logged, shown on the display, and reported in Outcome.Err.
func (r *Runner) Run(ctx context.Context, req Request) (out *Outcome) {
	id := req.ID
	if id == "" {
		id = r.newID()
	}
	out = &Outcome{
		ID:        id,
		Team:      r.team,
		Query:     req.Query,
		Status:    StatusFailed,
		StartedAt: r.now(),
	}
	logger := r.logger.With("run", id, "team", r.team)

	defer func() {
		if p := recover(); p != nil {
			logger.ErrorContext(ctx, "Run panicked", "panic", p, "stack", string(debug.Stack()))
			out.Status = StatusFailed
			out.Err = fmt.Errorf("panic during research: %v", p)
			fmt.Fprintf(r.display, "Error during research: %v\n", out.Err)
		}
		out.FinishedAt = r.now()
		if r.history != nil {
			if err := r.history.Record(context.WithoutCancel(ctx), out); err != nil {
				logger.WarnContext(ctx, "Failed to record run history", "error", err)
			}
		}
	}()

	fmt.Fprintf(r.display, "\nResearching: %s\n\n", req.Query)

	content := req.Query
	if r.brief != nil {
		var err error
		if content, err = r.brief(req.Query); err != nil {
			r.fail(ctx, logger, out, fmt.Errorf("build task: %w", err))
			return out
		}
	}
	task := &pipeline.Task{ID: id, Content: content, AdditionalInfo: req.AdditionalInfo}
	out.Task = task

	run, err := r.pipeline.Execute(ctx, task)
	out.Run = run
	if err != nil {
		r.fail(ctx, logger, out, err)
		return out
	}
	out.Status = StatusCompleted

	rec := report.Record{TaskID: id, Query: req.Query, Result: task.Result, GeneratedAt: r.now()}
	var errs []error
	for _, s := range r.sinks {
		p, err := s.Save(ctx, rec)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to save report", "error", err)
			errs = append(errs, err)
			continue
		}
		out.Paths = append(out.Paths, p)
	}
	out.Err = errors.Join(errs...)

	r.show(out)
	logger.InfoContext(ctx, "Run completed", "paths", out.Paths, "duration", r.now().Sub(out.StartedAt))
	return out
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, out *Outcome, err error) {
	out.Status = StatusFailed
	out.Err = err
	logger.ErrorContext(ctx, "Run failed", "error", err)
	fmt.Fprintf(r.display, "Error during research: %v\n", err)
}

func (r *Runner) show(out *Outcome) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(r.display, "\nFINAL RESEARCH REPORT:\n%s\n%s\n%s\n", rule, out.Task.Result, rule)
	for _, p := range out.Paths {
		fmt.Fprintf(r.display, "\nReport saved to: %s\n", p)
	}
	if out.Err != nil {
		fmt.Fprintf(r.display, "\nWarning: the report could not be saved: %v\n", out.Err)
	}
}
