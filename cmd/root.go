/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/config"
)

var version = "0.1.0"

var (
	configFile string
	logLevel   string
	logFile    string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "humanizer",
	Short: "Rewrite AI-generated text until it reads as human",
	Long: `A CLI application that makes machine-written text read as if a person wrote it.

Each attempt round-trip translates the text (source -> target -> source),
rewrites it in a casual voice with an LLM and asks an AI-text detector for a
verdict. Attempts repeat until the detector says "human" or the retry budget
is spent, then a final grammar-only pass polishes the result.

Translators: mymemory (default, free), google, ollama
Rewriters:   groq (default), openai, ollama

Settings come from humanizer.yaml, a .env file and HUMANIZER_* environment
variables (GROQ_API_KEY is accepted for the rewriter key).

Use "humanizer humanize --help" for humanization options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}

		level, err := config.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger, closeLog = config.SetupLogger(cfg.Log.File, level)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./humanizer.yaml or ~/.config/humanizer/humanizer.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
}
