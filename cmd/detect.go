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
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/app"
)

var detectInputFile string

var detectCmd = &cobra.Command{
	Use:   "detect [text...]",
	Short: "Ask the AI-text detector for a verdict",
	Long: `Send text to the configured detector and print whether it reads as human.

Unlike the pipeline, this command reports detector failures as errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(detectInputFile, args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return fmt.Errorf("no text to check")
		}

		report, err := app.NewDetector(cfg).Detect(cmd.Context(), text)
		if err != nil {
			return fmt.Errorf("detection failed: %w", err)
		}

		verdict := "AI-like"
		if report.IsHuman {
			verdict = "human"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Verdict:         %s\n", verdict)
		fmt.Fprintf(cmd.OutOrStdout(), "AI probability:  %.1f%%\n", report.FakePercentage)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&detectInputFile, "input", "i", "", "Input file (default: arguments or stdin)")
}
