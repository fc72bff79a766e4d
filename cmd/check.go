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
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/app"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured services are usable",
	Long: `Verify the configuration before a long run: the translator must be
reachable and support both languages, and the rewriter must be constructible
(API key present for hosted providers).

Example:
  humanizer check -t fr --translator ollama`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyHumanizeFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		var problems []string

		t, err := app.NewTranslator(cfg)
		if err != nil {
			return err
		}
		if err := t.IsAvailable(ctx); err != nil {
			problems = append(problems, fmt.Sprintf("translator %s: %v", t.Name(), err))
		} else {
			fmt.Fprintf(out, "translator %-10s ok\n", t.Name())
		}

		langs, err := t.SupportedLanguages(ctx)
		if err != nil {
			problems = append(problems, fmt.Sprintf("translator %s languages: %v", t.Name(), err))
		}
		for _, lang := range []string{cfg.SourceLang, cfg.TargetLang} {
			if lang == "" || len(langs) == 0 {
				continue
			}
			if !slices.Contains(langs, strings.ToLower(lang)) {
				problems = append(problems, fmt.Sprintf("translator %s does not list language %q", t.Name(), lang))
			}
		}
		if cfg.TargetLang == "" {
			problems = append(problems, "no target language configured (--target or target_lang)")
		}

		r, err := app.NewRewriter(cfg)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			fmt.Fprintf(out, "rewriter   %-10s ok\n", r.Name())
		}

		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", p)
			}
			return fmt.Errorf("%d problem(s) found", len(problems))
		}
		fmt.Fprintln(out, "All checks passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addPipelineFlags(checkCmd)
}
