/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dragoneye/internal/deckio"
	"dragoneye/internal/storage"
)

func openLibrary() (*storage.Library, error) {
	p := libraryPath
	if p == "" {
		var err error
		if p, err = cfg.LibraryFile(); err != nil {
			return nil, fmt.Errorf("library path: %w", err)
		}
	}
	return storage.OpenLibrary(p)
}

// withLibrary opens the library for the duration of fn.
func withLibrary(fn func(lib *storage.Library) error) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()
	return fn(lib)
}

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the local deck library",
	}
	cmd.AddCommand(libraryAddCmd(), libraryListCmd(), libraryShowCmd(), libraryRmCmd(), librarySearchCmd())
	return cmd
}

func libraryAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <deck-file>",
		Short: "Store a deck file in the library, replacing a deck of the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDeck(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				d.Name = name
			}
			return withLibrary(func(lib *storage.Library) error {
				if err := lib.Put(cmd.Context(), d); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %q (%d cards)\n", d.Name, d.CardCount())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "store under this name instead of the deck's own")
	return cmd
}

func libraryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(func(lib *storage.Library) error {
				decks, err := lib.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(decks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "library is empty")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tGROUPS\tCARDS\tUPDATED")
				for _, d := range decks {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", d.Name, d.Groups, d.Cards, d.UpdatedAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			})
		},
	}
}

func libraryShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(func(lib *storage.Library) error {
				d, err := lib.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				b, err := deckio.Encode(d, deckio.Format(strings.ToLower(format)))
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: json, yaml or toml")
	return cmd
}

func libraryRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a stored deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(func(lib *storage.Library) error {
				if err := lib.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", args[0])
				return nil
			})
		},
	}
}

func librarySearchCmd() *cobra.Command {
	var kind string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <terms...>",
		Short: "Full text search over card titles, text and tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(func(lib *storage.Library) error {
				hits, err := lib.Search(cmd.Context(), strings.Join(args, " "), kind, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DECK\tREF\tID\tTITLE\tKIND\tCOST")
				for _, h := range hits {
					fmt.Fprintf(tw, "%s\t%d/%d\t%s\t%s\t%s\t%d\n", h.Deck, h.Ref.Group, h.Ref.Card, h.ID, h.Title, h.Kind, h.Cost)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d hits\n", len(hits))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only cards of this kind")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum hits (default 100)")
	return cmd
}
