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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivanvanderbyl/researchteam/team"
)

func newTeamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List the built-in teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTAGES\tJUDGE\tDESCRIPTION")
			for _, name := range team.Names() {
				def, err := team.Builtin(name)
				if err != nil {
					return err
				}
				var stages []string
				for _, s := range def.Stages {
					stages = append(stages, s.Name)
				}
				judge := "-"
				if def.Judge != nil {
					judge = def.Judge.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Name, strings.Join(stages, " > "), judge, def.Description)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export <name>",
		Short: "Print a built-in team as YAML, to start a custom --team-file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := team.Builtin(args[0])
			if err != nil {
				return err
			}
			data, err := team.Marshal(def)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
