/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"dragoneye/internal/config"
	"dragoneye/internal/crash"
	applog "dragoneye/internal/log"
)

var (
	cfg         config.AppConfig
	libraryPath string
	verbose     bool
)

// NewRoot builds the command tree. Each call returns fresh commands so
// tests can execute them independently.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "dragoneye",
		Short:         "Card deck editor with a pan and zoom canvas",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			cfg = loaded
			opts := cfg.Logging.Options()
			if verbose {
				opts.Level = "debug"
			}
			applog.Init(opts)
			if err != nil {
				applog.WithComponent("cli").Warn("config load failed, using defaults", slog.Any("err", err))
			}
			crash.SetReportDir(cfg.General.CrashDir)
			applog.WithComponent("cli").Debug("start", slog.String("cmd", cmd.CommandPath()), slog.Int("args", len(args)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = applog.Close()
		},
	}

	root.PersistentFlags().StringVar(&libraryPath, "library", "", "deck library database (default from config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		versionCmd(),
		validateCmd(),
		convertCmd(),
		exportCmd(),
		libraryCmd(),
		replayCmd(),
		uiCmd(),
	)
	return root
}

func Execute() error {
	return NewRoot().Execute()
}
