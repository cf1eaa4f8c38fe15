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

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ivanvanderbyl/researchteam/pipeline"

// Config is the configuration of a [Pipeline].
type Config struct {
	Name        string
	Description string
	// Stages run in slice order. The order is fixed at construction.
	Stages []Stage
	// Gate, if set, evaluates the final output.
	Gate AcceptanceGate
	// StageTimeout bounds each capability call and the gate. Zero means no
	// limit beyond the caller's context.
	StageTimeout time.Duration

	Logger   *slog.Logger
	Tracer   trace.Tracer
	Observer Observer
}

// Pipeline is an immutable, ordered list of stages. It is safe for
// concurrent use by multiple runs.
type Pipeline struct {
	name         string
	description  string
	stages       []Stage
	gate         AcceptanceGate
	stageTimeout time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
	observer     Observer
}

// New validates cfg and returns a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if len(cfg.Stages) == 0 {
		return nil, errors.New("pipeline: at least one stage is required")
	}
	seen := make(map[string]bool, len(cfg.Stages))
	for i, s := range cfg.Stages {
		switch {
		case s.Name == "":
			return nil, fmt.Errorf("pipeline: stage %d has no name", i)
		case seen[s.Name]:
			return nil, fmt.Errorf("pipeline: duplicate stage name %q", s.Name)
		case s.Capability == nil:
			return nil, fmt.Errorf("pipeline: stage %q has no capability", s.Name)
		}
		seen[s.Name] = true
	}

	p := &Pipeline{
		name:         cfg.Name,
		description:  cfg.Description,
		stages:       append([]Stage(nil), cfg.Stages...),
		gate:         cfg.Gate,
		stageTimeout: cfg.StageTimeout,
		logger:       cfg.Logger,
		tracer:       cfg.Tracer,
		observer:     cfg.Observer,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(instrumentationName)
	}
	if p.observer == nil {
		p.observer = NopObserver{}
	}
	return p, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Description returns the pipeline description.
func (p *Pipeline) Description() string { return p.description }

// Stages returns a copy of the stage list.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// HasGate reports whether an acceptance gate is configured.
func (p *Pipeline) HasGate() bool { return p.gate != nil }

// Run records one execution.
type Run struct {
	Task *Task
	// Outputs holds the output of every completed stage, in order.
	Outputs []StageOutput
	// Verdict is set when a gate evaluated the final output.
	Verdict *Verdict
	Phase   Phase
	// Phases lists every phase the run entered, starting with CREATED.
	Phases     []Phase
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Run) transition(to Phase) {
	if !canTransition(r.Phase, to) {
		// Unreachable unless Execute is broken.
		panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", r.Phase, to))
	}
	r.Phase = to
	r.Phases = append(r.Phases, to)
}

// Execute runs task through every stage in order and sets task.Result.
//
// On a stage failure the run moves to FAILED, no later stage runs, and the
// returned error is a [*StageError]. The partial run is returned with it.
func (p *Pipeline) Execute(ctx context.Context, task *Task) (*Run, error) {
	if task == nil {
		return nil, errors.New("pipeline: nil task")
	}
	if task.Completed() {
		return nil, ErrTaskCompleted
	}

	run := &Run{Task: task, Phase: created(), Phases: []Phase{created()}, StartedAt: time.Now()}
	logger := p.logger.With("pipeline", p.name, "task_id", task.ID)

	ctx, span := p.tracer.Start(ctx, "pipeline "+p.name, trace.WithAttributes(
		attribute.String("pipeline.name", p.name),
		attribute.String("task.id", task.ID),
		attribute.Int("pipeline.stages", len(p.stages)),
	))
	defer span.End()

	fail := func(err error) (*Run, error) {
		run.transition(failed())
		run.FinishedAt = time.Now()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Pipeline failed", "error", err, "elapsed", run.FinishedAt.Sub(run.StartedAt))
		return run, err
	}

	logger.Info("Pipeline started", "stages", len(p.stages), "gate", p.gate != nil)
	for i, stage := range p.stages {
		run.transition(running(i))
		out, err := p.runStage(ctx, logger, i, stage, newContext(task, run.Outputs))
		if err != nil {
			return fail(err)
		}
		run.Outputs = append(run.Outputs, StageOutput{Stage: stage.Name, Text: out})
	}

	final := run.Outputs[len(run.Outputs)-1].Text
	result := final
	if p.gate != nil {
		run.transition(running(len(p.stages)))
		v, err := p.evaluate(ctx, logger, final, newContext(task, run.Outputs))
		if err != nil {
			return fail(err)
		}
		run.Verdict = &v
		result = compose(final, v)
		span.SetAttributes(
			attribute.String("verdict.assessment", string(v.Assessment)),
			attribute.Float64("verdict.score", v.Score),
		)
	}

	task.Result = result
	task.done = true
	run.transition(completed())
	run.FinishedAt = time.Now()
	span.SetStatus(codes.Ok, "")
	logger.Info("Pipeline completed", "elapsed", run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}

func (p *Pipeline) runStage(ctx context.Context, logger *slog.Logger, i int, stage Stage, in Context) (string, error) {
	ctx, span := p.tracer.Start(ctx, "stage "+stage.Name, trace.WithAttributes(
		attribute.String("stage.name", stage.Name),
		attribute.Int("stage.index", i),
	))
	defer span.End()

	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}

	logger.Info("Stage started", "stage", stage.Name, "index", i)
	p.observer.StageStarted(ctx, i, stage)
	start := time.Now()

	out, err := stage.Run(ctx, in)
	elapsed := time.Since(start)
	if err != nil {
		var se *StageError
		if !errors.As(err, &se) {
			se = &StageError{Stage: stage.Name, Err: err}
		}
		se.Index = i
		span.RecordError(se.Err)
		span.SetStatus(codes.Error, se.Err.Error())
		logger.Warn("Stage failed", "stage", stage.Name, "index", i, "error", se.Err, "elapsed", elapsed)
		p.observer.StageFailed(ctx, i, stage, se)
		return "", se
	}

	span.SetAttributes(attribute.Int("stage.output_length", len(out)))
	logger.Info("Stage finished", "stage", stage.Name, "index", i, "output_length", len(out), "elapsed", elapsed)
	p.observer.StageFinished(ctx, i, stage, out, elapsed)
	return out, nil
}

// evaluate runs the gate as a pseudo-stage so that it is observed, traced and
// bounded like any other stage.
func (p *Pipeline) evaluate(ctx context.Context, logger *slog.Logger, final string, in Context) (Verdict, error) {
	var verdict Verdict
	gateStage := Stage{
		Name:        GateStageName,
		Description: "Evaluates the final output",
		Capability: CapabilityFunc(func(ctx context.Context, _ Context) (string, error) {
			v, err := p.gate.Evaluate(ctx, final)
			if err != nil {
				return "", err
			}
			verdict = v
			return v.String(), nil
		}),
	}
	if _, err := p.runStage(ctx, logger, len(p.stages), gateStage, in); err != nil {
		return Verdict{}, err
	}
	return verdict, nil
}
