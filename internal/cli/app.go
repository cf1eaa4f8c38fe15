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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"

	"github.com/ivanvanderbyl/researchteam/internal/config"
	"github.com/ivanvanderbyl/researchteam/internal/history"
	"github.com/ivanvanderbyl/researchteam/internal/logging"
	"github.com/ivanvanderbyl/researchteam/internal/telemetry"
	"github.com/ivanvanderbyl/researchteam/model/registry"
	"github.com/ivanvanderbyl/researchteam/pipeline"
	"github.com/ivanvanderbyl/researchteam/prompt"
	"github.com/ivanvanderbyl/researchteam/report"
	"github.com/ivanvanderbyl/researchteam/runner"
	"github.com/ivanvanderbyl/researchteam/team"
	"github.com/ivanvanderbyl/researchteam/tool/websearch"
)

// HistoryOff disables run history when used as RESEARCH_HISTORY_DB.
const HistoryOff = "off"

// Replaced in tests.
var (
	newModels = func(cfg *config.Config) team.ModelResolver {
		return registry.New(cfg.Registry())
	}
	newSearcher = func(ctx context.Context, cfg *config.Config) (websearch.Searcher, error) {
		return websearch.NewGoogle(ctx, cfg.Search())
	}
)

// common holds the flags shared by every command that builds a team.
type common struct {
	team        string
	teamFile    string
	contentFile string
	envFiles    []string
	trace       bool
}

func (c *common) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&c.team, "team", "t", "", "built-in team: "+strings.Join(team.Names(), ", ")+" (default "+team.DefaultName+")")
	f.StringVar(&c.teamFile, "team-file", "", "YAML team definition; overrides --team")
	f.StringVar(&c.contentFile, "content-file", "", "file with material for the team, passed as additional info")
	f.StringSliceVar(&c.envFiles, "env-file", nil, "env files to load (default .env)")
	f.BoolVar(&c.trace, "trace", false, "log a span for the run and each stage")
}

// app is the state shared by a command once flags and configuration are
// resolved.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	def     team.Definition
	content string
	closers []func() error

	store       *history.Store
	storeOpened bool
}

func (c *common) setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(c.envFiles...)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logging.Install(logger)
	a := &app{cfg: cfg, logger: logger}

	if c.trace {
		shutdown := telemetry.Setup(logger)
		a.closers = append(a.closers, func() error { return shutdown(context.Background()) })
	}

	teamFile := c.teamFile
	if teamFile == "" {
		teamFile = cfg.TeamFile
	}
	if teamFile != "" {
		a.def, err = team.LoadFile(teamFile)
	} else {
		name := c.team
		if name == "" {
			name = cfg.Team
		}
		a.def, err = team.Builtin(name)
	}
	if err != nil {
		a.close()
		return nil, err
	}

	if c.contentFile != "" {
		data, err := os.ReadFile(c.contentFile)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("read content file: %w", err)
		}
		a.content = string(data)
	}
	return a, nil
}

// close releases everything the app opened, newest first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Shutdown failed", "error", err)
		}
	}
	a.closers = nil
}

// runner checks credentials, builds the team and its pipeline, and wires
// the report sinks and history. display may be nil.
func (a *app) runner(ctx context.Context, display io.Writer, obs pipeline.Observer) (*runner.Runner, error) {
	keys, err := team.Requirements(a.def, a.cfg.AnthropicUseVertex)
	if err != nil {
		return nil, err
	}
	if err := a.cfg.Require(keys...); err != nil {
		return nil, err
	}

	vars := prompt.Vars{}
	if a.content != "" {
		vars["content"] = a.content
	}
	var missing []string
	for _, name := range team.RequiredVars(a.def) {
		if vars[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &config.ConfigurationError{Problems: []string{
			fmt.Sprintf("team %q needs %s; pass the material with --content-file", a.def.Name, strings.Join(missing, ", ")),
		}}
	}

	var search websearch.Searcher
	if a.cfg.HasSearch() {
		if search, err = newSearcher(ctx, a.cfg); err != nil {
			return nil, err
		}
	}
	t, err := team.Build(ctx, a.def, team.Deps{
		Models: newModels(a.cfg),
		Search: search,
		Vars:   vars,
		Logger: a.logger,
	})
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(pipeline.Config{
		Name:         t.Name,
		Description:  t.Description,
		Stages:       t.Stages,
		Gate:         t.Gate,
		StageTimeout: a.cfg.StageTimeout,
		Logger:       a.logger,
		Observer:     obs,
	})
	if err != nil {
		return nil, err
	}

	sinks, err := a.sinks(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.history()
	if err != nil {
		return nil, err
	}
	cfg := runner.Config{
		Pipeline: p,
		Team:     t.Name,
		Brief:    t.Brief,
		Sinks:    sinks,
		Display:  display,
		Logger:   a.logger,
	}
	if store != nil {
		cfg.History = store
	}
	return runner.New(cfg)
}

func (a *app) sinks(ctx context.Context) ([]report.Sink, error) {
	sinks := []report.Sink{report.NewFileSink(a.cfg.ResultsDir)}
	if a.cfg.ResultsHTML {
		sinks = append(sinks, report.NewHTMLSink(a.cfg.ResultsDir))
	}
	if a.cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		gcs, err := report.NewGCSSink(client, a.cfg.GCSBucket, "research")
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, gcs)
	}
	return sinks, nil
}

// history opens the run history once. It returns nil when history is off.
func (a *app) history() (*history.Store, error) {
	if a.storeOpened {
		return a.store, nil
	}
	path := a.cfg.HistoryDB
	switch path {
	case HistoryOff:
		a.storeOpened = true
		return nil, nil
	case "":
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return nil, err
		}
	}
	store, err := history.Open(path, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	a.store, a.storeOpened = store, true
	return store, nil
}

var errHistoryOff = errors.New("run history is disabled (RESEARCH_HISTORY_DB=" + HistoryOff + ")")
