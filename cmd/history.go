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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/app"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/store"
)

var (
	historyDBPath string
	historyLimit  int
	historyText   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded humanize runs",
	Long:  `List, inspect, and clear the SQLite history of humanize runs.`,
}

// openHistory opens the database from --db or, when unset, from config.
func openHistory(cmd *cobra.Command) (*store.Store, error) {
	path := cfg.History.DBPath
	if cmd.Flags().Changed("db") {
		path = historyDBPath
	}
	return app.OpenStore(path)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		var runs []store.Run
		if historyText != "" {
			runs, err = db.FindRuns(cmd.Context(), historyText)
		} else {
			runs, err = db.ListRuns(cmd.Context(), historyLimit)
		}
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tLANGS\tRETRIES\tIN LOOP\tHUMAN\tTEXT")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s>%s\t%d\t%v\t%v\t%s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.SourceLang, r.TargetLang, r.MaxRetries,
				r.PassedInLoop, r.FinalVerdict, snippet(r.SourceText, 40))
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with every attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:        %s\n", run.ID)
		fmt.Printf("Created:    %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Languages:  %s -> %s -> %s\n", run.SourceLang, run.TargetLang, run.SourceLang)
		fmt.Printf("Services:   %s / %s\n", run.Translator, run.Rewriter)
		fmt.Printf("Retries:    %d (passed in loop: %v, final verdict human: %v)\n", run.MaxRetries, run.PassedInLoop, run.FinalVerdict)
		fmt.Printf("\nOriginal:\n%s\n", run.SourceText)
		for _, a := range run.Attempts {
			fmt.Printf("\nAttempt %d (human: %v):\n%s\n", a.Index, a.Verdict, a.Text)
			for _, f := range a.Failures {
				fmt.Printf("  ! %s\n", f)
			}
		}
		fmt.Printf("\nFinal:\n%s\n", run.FinalText)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total runs:        %d\n", stats.TotalRuns)
		fmt.Printf("Passed in loop:    %d\n", stats.PassedInLoop)
		fmt.Printf("Human at the end:  %d\n", stats.PassedFinal)
		fmt.Printf("Attempts per run:  %.2f\n", stats.AvgAttempts())
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteRun(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Printf("Deleted run: %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Printf("Cleared %d runs from history.\n", n)
		return nil
	},
}

func snippet(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().StringVar(&historyDBPath, "db", "", "Database path (default from config history.db_path)")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list (0 = all)")
	historyListCmd.Flags().StringVar(&historyText, "text", "", "Only list runs of this source text")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
