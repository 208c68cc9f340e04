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

	"github.com/spf13/cobra"

	"dragoneye/internal/deckio"
	"dragoneye/internal/domain"
	"dragoneye/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a deck to print sheets or an overview image",
	}
	cmd.AddCommand(exportPDFCmd(), exportPNGCmd(), exportBundleCmd())
	return cmd
}

// readDeck loads a deck file or a .zip bundle.
func readDeck(path string) (domain.Deck, error) {
	if export.IsBundle(path) {
		return export.ReadBundle(path)
	}
	return deckio.Load(path)
}

// loadDeck reads a deck file, or a library deck when fromLibrary is set.
func loadDeck(cmd *cobra.Command, src string, fromLibrary bool) (domain.Deck, error) {
	if !fromLibrary {
		return readDeck(src)
	}
	lib, err := openLibrary()
	if err != nil {
		return domain.Deck{}, err
	}
	defer lib.Close()
	return lib.Get(cmd.Context(), src)
}

func exportPDFCmd() *cobra.Command {
	var opt export.PDFOptions
	var fromLib bool
	cmd := &cobra.Command{
		Use:   "pdf <deck> <out.pdf>",
		Short: "Write A4 print sheets, nine cards per page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeck(cmd, args[0], fromLib)
			if err != nil {
				return err
			}
			sheets, err := export.ExportPDF(d, args[1], opt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d sheets)\n", args[1], sheets)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opt.CutGuides, "guides", false, "draw cut guides")
	cmd.Flags().StringSliceVar(&opt.Groups, "group", nil, "only export the named groups")
	cmd.Flags().StringVar(&opt.Author, "author", "", "PDF author")
	cmd.Flags().BoolVar(&fromLib, "from-library", false, "treat <deck> as a library deck name")
	return cmd
}

func exportPNGCmd() *cobra.Command {
	var opt export.PNGOptions
	var fromLib bool
	cmd := &cobra.Command{
		Use:   "png <deck> <out.png>",
		Short: "Write an overview image of the whole deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeck(cmd, args[0], fromLib)
			if err != nil {
				return err
			}
			if err := export.ExportPNG(d, args[1], opt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&opt.Width, "width", 1280, "image width in pixels")
	cmd.Flags().IntVar(&opt.Height, "height", 800, "image height in pixels")
	cmd.Flags().BoolVar(&fromLib, "from-library", false, "treat <deck> as a library deck name")
	return cmd
}

func exportBundleCmd() *cobra.Command {
	var fromLib bool
	cmd := &cobra.Command{
		Use:   "bundle <deck> <out.zip>",
		Short: "Zip the deck with its overview image and print sheets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDeck(cmd, args[0], fromLib)
			if err != nil {
				return err
			}
			if err := export.ExportBundle(d, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromLib, "from-library", false, "treat <deck> as a library deck name")
	return cmd
}
