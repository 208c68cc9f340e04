/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"dragoneye/internal/replay"
	"dragoneye/internal/ui"
)

func replayCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "replay <deck> <script.yaml>",
		Short: "Drive the canvas from a gesture script and print events as JSON lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDeck(args[0])
			if err != nil {
				return err
			}
			s, err := replay.LoadScript(args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			emit := func(r replay.Record) error {
				if quiet {
					return nil
				}
				return enc.Encode(r)
			}
			sum, err := replay.Run(cmd.Context(), d, s, emit)
			if err != nil {
				return err
			}
			return enc.Encode(map[string]any{"event": "summary", "summary": sum})
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the summary")
	return cmd
}

func uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui [deck]",
		Short: "Launch the desktop editor (build with -tags fyne)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return ui.Run(path)
		},
	}
}
