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

// Package history keeps a record of research runs in a SQLite database.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/runner"
)

// ErrNotFound is returned by [Store.Get] for an unknown run.
var ErrNotFound = errors.New("history: run not found")

// Run is one recorded research run.
type Run struct {
	ID     string `gorm:"primaryKey"`
	Team   string `gorm:"index"`
	Query  string
	Status runner.Status
	// Phase is the final pipeline phase, e.g. COMPLETED or RUNNING(1) for
	// a run that stopped mid-way.
	Phase      string
	Result     string
	Error      string
	Assessment pipeline.Assessment
	Score      *float64
	Findings   []string  `gorm:"serializer:json"`
	Paths      []string  `gorm:"serializer:json"`
	Stages     []Stage   `gorm:"constraint:OnDelete:CASCADE"`
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time
}

// Stage is the output of one completed stage of a run.
type Stage struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index"`
	Position int
	Name     string
	Text     string
}

// Verdict returns the recorded gate verdict, if any.
func (r *Run) Verdict() *pipeline.Verdict {
	if r.Assessment == "" {
		return nil
	}
	v := &pipeline.Verdict{Assessment: r.Assessment, Findings: r.Findings}
	if r.Score != nil {
		v.Score = *r.Score
	}
	return v
}

// Store persists runs. It implements [runner.History].
type Store struct {
	db *gorm.DB
}

// DefaultPath returns ~/.researchteam/history.db, creating the directory if
// needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	dir := filepath.Join(home, ".researchteam")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens or creates the database at path and migrates its schema.
// SQL statements are logged at debug level through l.
func Open(path string, l *slog.Logger) (*Store, error) {
	if l == nil {
		l = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"), &gorm.Config{
		Logger: logger.NewSlogLogger(l, logger.Config{
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Warn,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Run{}, &Stage{}); err != nil {
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores o, replacing any earlier record with the same ID.
func (s *Store) Record(ctx context.Context, o *runner.Outcome) error {
	run := fromOutcome(o)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", run.ID).Delete(&Stage{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Run{ID: run.ID}).Error; err != nil {
			return err
		}
		return tx.Create(run).Error
	})
}

func fromOutcome(o *runner.Outcome) *Run {
	run := &Run{
		ID:         o.ID,
		Team:       o.Team,
		Query:      o.Query,
		Status:     o.Status,
		Paths:      o.Paths,
		StartedAt:  o.StartedAt,
		FinishedAt: o.FinishedAt,
	}
	if o.Err != nil {
		run.Error = o.Err.Error()
	}
	if o.Task != nil {
		run.Result = o.Task.Result
	}
	if o.Run != nil {
		run.Phase = o.Run.Phase.String()
		for i, out := range o.Run.Outputs {
			run.Stages = append(run.Stages, Stage{RunID: o.ID, Position: i, Name: out.Stage, Text: out.Text})
		}
	}
	if v := o.Verdict(); v != nil {
		score := v.Score
		run.Assessment = v.Assessment
		run.Score = &score
		run.Findings = v.Findings
	}
	return run
}

// Filter narrows [Store.List]. Zero fields match everything.
type Filter struct {
	Team   string
	Status runner.Status
	// Limit caps the number of runs returned. Zero means 20.
	Limit int
}

// List returns runs newest first, without stage outputs.
func (s *Store) List(ctx context.Context, f Filter) ([]Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if f.Team != "" {
		q = q.Where("team = ?", f.Team)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with its stage outputs in order.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}
