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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/app"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/config"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/handler"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
	maxRetries int

	translatorName   string
	rewriterName     string
	rewriterModel    string
	validateLanguage bool
	noHistory        bool
	jsonOutput       bool
)

var humanizeCmd = &cobra.Command{
	Use:   "humanize [text...]",
	Short: "Humanize text until an AI detector accepts it",
	Long: `Humanize text read from --input, the command arguments or stdin.

Each attempt round-trip translates the text through --target, rewrites it in
a casual voice and asks the detector for a verdict. The loop stops at the
first "human" verdict or after --max-retries attempts; a grammar-only pass
then polishes the result. A failing service never aborts the run: the
affected step passes its input through unchanged.

The final text goes to stdout (or --output); the verdict goes to stderr.

Example:
  humanizer humanize -t fr "AI is transforming industries at an unprecedented pace."
  humanizer humanize -i essay.txt -o essay.human.txt -t ar --max-retries 5
  cat essay.txt | humanizer humanize -t de --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		applyHumanizeFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		text, err := readText(inputFile, args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		h, closeDB, err := app.NewHandler(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB()

		resp, err := h.Handle(cmd.Context(), handler.Request{
			Text:       strings.TrimSpace(text),
			SourceLang: cfg.SourceLang,
			TargetLang: cfg.TargetLang,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			return err
		}
		if resp.Error != "" {
			return fmt.Errorf("%s", resp.Error)
		}

		if jsonOutput {
			data, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode response: %w", err)
			}
			return writeText(outputFile, cmd.OutOrStdout(), string(data))
		}

		if err := writeText(outputFile, cmd.OutOrStdout(), resp.FinalText); err != nil {
			return err
		}

		verdict := "AI-like"
		if resp.IsHuman {
			verdict = "human"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Verdict: %s (attempts: %d, passed in loop: %v)\n", verdict, len(resp.Attempts), resp.PassedInLoop)
		if resp.RunID != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Run ID: %s\n", resp.RunID)
		}
		return nil
	},
}

// applyHumanizeFlags lets explicitly set flags override the loaded config.
func applyHumanizeFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		c.SourceLang = sourceLang
	}
	if flags.Changed("target") {
		c.TargetLang = targetLang
	}
	if flags.Changed("max-retries") {
		c.MaxRetries = maxRetries
	}
	if flags.Changed("translator") {
		c.Translator.Service = translatorName
	}
	if flags.Changed("rewriter") {
		c.Rewriter.Provider = rewriterName
	}
	if flags.Changed("model") {
		c.Rewriter.Model = rewriterModel
	}
	if flags.Changed("validate-language") {
		c.ValidateLanguage = validateLanguage
	}
	if noHistory {
		c.History.Enabled = false
	}
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&sourceLang, "source", "s", "en", "Source language code")
	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "Round-trip language code (default from config)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Maximum humanize attempts before the grammar pass")
	cmd.Flags().StringVar(&translatorName, "translator", "mymemory", "Translator: mymemory, google, ollama")
	cmd.Flags().StringVar(&rewriterName, "rewriter", "groq", "Rewriter: groq, openai, ollama")
	cmd.Flags().StringVar(&rewriterModel, "model", "", "Rewriter model (default from config)")
	cmd.Flags().BoolVar(&validateLanguage, "validate-language", false, "Discard round trips that do not come back in the source language")
}

func init() {
	rootCmd.AddCommand(humanizeCmd)

	humanizeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default: arguments or stdin)")
	humanizeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	humanizeCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	humanizeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full response as JSON")
	addPipelineFlags(humanizeCmd)
}
