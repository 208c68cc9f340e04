/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dragoneye/internal/deckio"
	"dragoneye/internal/domain"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <deck>",
		Short: "Check a deck file against the schema and deck rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDeck(args[0])
			if err != nil {
				var verrs domain.ValidationErrors
				var serr *deckio.SchemaError
				if errors.As(err, &verrs) || errors.As(err, &serr) {
					fmt.Fprintln(cmd.OutOrStdout(), err.Error())
					return fmt.Errorf("%s is not valid", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %q, %d groups, %d cards\n", d.Name, len(d.Groups), d.CardCount())
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a deck between JSON, YAML and TOML by file extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDeck(args[0])
			if err != nil {
				return err
			}
			if err := deckio.Save(args[1], d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
}
