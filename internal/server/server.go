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

// Package server exposes research runs over HTTP. Runs are started in the
// background and polled by ID.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"

	"github.com/ivanvanderbyl/researchteam/internal/history"
	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/runner"
)

// Researcher runs one request. [*runner.Runner] implements it.
type Researcher interface {
	Run(ctx context.Context, req runner.Request) *runner.Outcome
}

// History looks up finished runs. [*history.Store] implements it.
type History interface {
	List(ctx context.Context, f history.Filter) ([]history.Run, error)
	Get(ctx context.Context, id string) (*history.Run, error)
}

// StatusRunning marks a run that has not finished yet.
const StatusRunning = "running"

type Config struct {
	Researcher Researcher
	// History serves runs that are no longer held in memory. Optional.
	History History
	// MaxConcurrent limits runs in flight. Zero means 4.
	MaxConcurrent int64
	// Team labels runs while they are in flight.
	Team   string
	Logger *slog.Logger
}

// Server is an HTTP front end for a [Researcher].
type Server struct {
	researcher Researcher
	history    History
	team       string
	sem        *semaphore.Weighted
	logger     *slog.Logger
	router     *mux.Router

	// ctx is the parent of every background run; cancel stops them.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	runs map[string]*RunView
}

func New(cfg Config) (*Server, error) {
	if cfg.Researcher == nil {
		return nil, errors.New("server: researcher is required")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		researcher: cfg.Researcher,
		history:    cfg.History,
		team:       cfg.Team,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
		logger:     cfg.Logger,
		ctx:        ctx,
		cancel:     cancel,
		runs:       make(map[string]*RunView),
	}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/runs", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", s.handleGet).Methods(http.MethodGet)
	api.Use(s.logRequests)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on l until ctx is done, then shuts down,
// waiting up to grace for requests and runs in flight.
func (s *Server) Serve(ctx context.Context, l net.Listener, grace time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	s.logger.Info("Listening", "addr", l.Addr().String())

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	err := srv.Shutdown(sctx)
	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-sctx.Done():
		s.logger.Warn("Cancelling runs still in flight")
		s.Close()
	}
	return err
}

// Close cancels every run in flight and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until no runs are in flight.
func (s *Server) Wait() { s.wg.Wait() }

// RunView is the JSON form of a run.
type RunView struct {
	ID         string       `json:"id"`
	Team       string       `json:"team,omitempty"`
	Query      string       `json:"query"`
	Status     string       `json:"status"`
	Phase      string       `json:"phase,omitempty"`
	Result     string       `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	Verdict    *VerdictView `json:"verdict,omitempty"`
	Paths      []string     `json:"paths,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

type VerdictView struct {
	Assessment string   `json:"assessment"`
	Score      float64  `json:"score"`
	Findings   []string `json:"findings,omitempty"`
}

func verdictView(v *pipeline.Verdict) *VerdictView {
	if v == nil {
		return nil
	}
	return &VerdictView{Assessment: string(v.Assessment), Score: v.Score, Findings: v.Findings}
}

func outcomeView(o *runner.Outcome) *RunView {
	v := &RunView{
		ID:         o.ID,
		Team:       o.Team,
		Query:      o.Query,
		Status:     string(o.Status),
		Verdict:    verdictView(o.Verdict()),
		Paths:      o.Paths,
		StartedAt:  o.StartedAt,
		FinishedAt: &o.FinishedAt,
	}
	if o.Run != nil {
		v.Phase = o.Run.Phase.String()
	}
	if o.Task != nil {
		v.Result = o.Task.Result
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
	}
	return v
}

func historyView(r *history.Run) *RunView {
	finished := r.FinishedAt
	return &RunView{
		ID:         r.ID,
		Team:       r.Team,
		Query:      r.Query,
		Status:     string(r.Status),
		Phase:      r.Phase,
		Result:     r.Result,
		Error:      r.Error,
		Verdict:    verdictView(r.Verdict()),
		Paths:      r.Paths,
		StartedAt:  r.StartedAt,
		FinishedAt: &finished,
	}
}

type createRequest struct {
	Query          string `json:"query"`
	AdditionalInfo string `json:"additional_info"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if !s.sem.TryAcquire(1) {
		writeError(w, http.StatusServiceUnavailable, "too many runs in flight")
		return
	}

	view := &RunView{ID: uuid.NewString(), Team: s.team, Query: req.Query, Status: StatusRunning, StartedAt: time.Now()}
	s.mu.Lock()
	s.runs[view.ID] = view
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		out := s.researcher.Run(s.ctx, runner.Request{ID: view.ID, Query: req.Query, AdditionalInfo: req.AdditionalInfo})
		s.mu.Lock()
		s.runs[view.ID] = outcomeView(out)
		s.mu.Unlock()
	}()

	w.Header().Set("Location", "/api/runs/"+view.ID)
	writeJSON(w, http.StatusAccepted, view)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	view, ok := s.runs[id]
	if ok {
		cp := *view
		view = &cp
	}
	s.mu.Unlock()
	if ok {
		writeJSON(w, http.StatusOK, view)
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	run, err := s.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read history", "run", id, "error", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, historyView(run))
}

// handleList returns runs newest first. With a store configured it lists the
// recorded history plus the runs still in flight, which history only sees
// once they finish; otherwise it lists the runs held in memory.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	if s.history != nil {
		running := s.inFlight(q.Get("team"), q.Get("status"))
		runs, err := s.history.List(r.Context(), history.Filter{
			Team:   q.Get("team"),
			Status: runner.Status(q.Get("status")),
			Limit:  limit,
		})
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to list history", "error", err)
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		// A run finishing now may already be recorded; history wins.
		views := slices.DeleteFunc(running, func(v *RunView) bool {
			return slices.ContainsFunc(runs, func(h history.Run) bool { return h.ID == v.ID })
		})
		if views == nil {
			views = []*RunView{}
		}
		for i := range runs {
			views = append(views, historyView(&runs[i]))
		}
		sortNewestFirst(views)
		if limit > 0 && len(views) > limit {
			views = views[:limit]
		}
		writeJSON(w, http.StatusOK, views)
		return
	}

	s.mu.Lock()
	views := make([]*RunView, 0, len(s.runs))
	for _, v := range s.runs {
		cp := *v
		views = append(views, &cp)
	}
	s.mu.Unlock()
	sortNewestFirst(views)
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	writeJSON(w, http.StatusOK, views)
}

// inFlight copies the running views that match the team and status filters.
func (s *Server) inFlight(team, status string) []*RunView {
	if status != "" && status != StatusRunning {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var views []*RunView
	for _, v := range s.runs {
		if v.Status != StatusRunning || (team != "" && v.Team != team) {
			continue
		}
		cp := *v
		views = append(views, &cp)
	}
	return views
}

func sortNewestFirst(views []*RunView) {
	slices.SortFunc(views, func(a, b *RunView) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.DebugContext(r.Context(), "HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
