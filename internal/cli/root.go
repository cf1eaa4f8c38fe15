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

// Package cli implements the researchteam command line.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivanvanderbyl/researchteam/runner"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

// ErrResearchFailed is returned when a run fails. The runner has already
// reported the failure, so callers only need to set the exit status.
var ErrResearchFailed = errors.New("research failed")

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type rootOptions struct {
	common
	query string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "researchteam",
		Short: "Run a team of research agents on a question",
		Long: `researchteam hands a research question to a fixed sequence of agents:
a planner, a researcher with web search, and a report writer, optionally
followed by a quality judge. The final report is printed and saved under the
results directory.

Credentials are read from the environment and from .env files.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResearch(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "research question; prompted for when omitted")
	opts.common.register(cmd)

	cmd.AddCommand(newGraphCmd(&opts.common))
	cmd.AddCommand(newTeamsCmd())
	cmd.AddCommand(newHistoryCmd(&opts.common))
	cmd.AddCommand(newServeCmd(&opts.common))
	cmd.AddCommand(newMCPCmd(&opts.common))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runResearch(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	a, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	query := strings.TrimSpace(opts.query)
	if query == "" {
		if query, err = promptQuery(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	r, err := a.runner(ctx, cmd.OutOrStdout(), newProgress(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	out := r.Run(ctx, runner.Request{Query: query, AdditionalInfo: a.content})
	if out.Status != runner.StatusCompleted {
		return ErrResearchFailed
	}
	return nil
}

func promptQuery(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter your research question: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read query: %w", err)
	}
	query := strings.TrimSpace(line)
	if query == "" {
		return "", errors.New("a research question is required")
	}
	return query, nil
}
