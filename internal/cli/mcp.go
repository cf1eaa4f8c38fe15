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
	"github.com/spf13/cobra"

	"github.com/ivanvanderbyl/researchteam/internal/mcpserver"
)

func newMCPCmd(opts *common) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the team as an MCP tool over stdio",
		Long: `Serve a single "research" tool over the Model Context Protocol on stdin
and stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			r, err := a.runner(cmd.Context(), nil, nil)
			if err != nil {
				return err
			}
			return mcpserver.Serve(cmd.Context(), mcpserver.New(r, a.def.Name, version))
		},
	}
}
