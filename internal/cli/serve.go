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
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivanvanderbyl/researchteam/internal/server"
)

func newServeCmd(opts *common) *cobra.Command {
	var (
		addr          string
		maxConcurrent int64
		grace         time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve research runs over HTTP",
		Long: `Start an HTTP API for the selected team.

  POST /api/runs        {"query": "...", "additional_info": "..."} starts a run
  GET  /api/runs/{id}   reports its status and, once done, the report
  GET  /api/runs        lists recent runs
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			r, err := a.runner(ctx, nil, nil)
			if err != nil {
				return err
			}
			cfg := server.Config{Researcher: r, MaxConcurrent: maxConcurrent, Team: a.def.Name, Logger: a.logger}
			store, err := a.history()
			if err != nil {
				return err
			}
			if store != nil {
				cfg.History = store
			}
			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			return srv.Serve(ctx, l, grace)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "address to listen on")
	cmd.Flags().Int64Var(&maxConcurrent, "max-concurrent", 4, "maximum runs in flight")
	cmd.Flags().DurationVar(&grace, "grace", 30*time.Second, "how long to wait for runs in flight on shutdown")
	return cmd
}
