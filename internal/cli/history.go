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
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivanvanderbyl/researchteam/internal/history"
	"github.com/ivanvanderbyl/researchteam/runner"
)

func newHistoryCmd(opts *common) *cobra.Command {
	var (
		limit  int
		status string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run in full",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			store, err := a.history()
			if err != nil {
				return err
			}
			if store == nil {
				return errHistoryOff
			}

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRun(cmd.OutOrStdout(), run)
				return nil
			}

			f := history.Filter{Status: runner.Status(status), Limit: limit}
			if !all {
				f.Team = a.def.Name
			}
			runs, err := store.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&status, "status", "", "only list runs with this status (completed or failed)")
	cmd.Flags().BoolVar(&all, "all", false, "list runs of every team")
	return cmd
}

func printRuns(w io.Writer, runs []history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tTEAM\tSTATUS\tVERDICT\tQUERY")
	for _, r := range runs {
		verdict := "-"
		if v := r.Verdict(); v != nil {
			verdict = fmt.Sprintf("%s %.1f", v.Assessment, v.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Team, r.Status, verdict, truncate(r.Query, 60))
	}
	return tw.Flush()
}

func printRun(w io.Writer, r *history.Run) {
	fmt.Fprintf(w, "Run:      %s\n", r.ID)
	fmt.Fprintf(w, "Team:     %s\n", r.Team)
	fmt.Fprintf(w, "Query:    %s\n", r.Query)
	fmt.Fprintf(w, "Status:   %s (%s)\n", r.Status, r.Phase)
	fmt.Fprintf(w, "Started:  %s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	for _, p := range r.Paths {
		fmt.Fprintf(w, "Saved to: %s\n", p)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", r.Error)
	}
	for _, s := range r.Stages {
		fmt.Fprintf(w, "\n## %d. %s\n\n%s\n", s.Position+1, s.Name, s.Text)
	}
	if v := r.Verdict(); v != nil {
		fmt.Fprintf(w, "\n%s", v.String())
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
