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
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/app"
	"github.com/nextsalutionlaiba-svg/humanizer-app/internal/store"
)

var (
	csvInputFile  string
	csvOutputFile string
	csvColumns    []int
	csvSkipHeader bool
	csvJobs       int
	csvResume     string
	csvNoCheckpt  bool
)

type csvCell struct {
	row, col int
	text     string
}

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Humanize columns of a CSV file",
	Long: `Humanize one or more columns in a CSV file.

By default all columns are processed. Use -l to select specific columns
(0-indexed). The flag may be repeated to select multiple columns.
Cells are humanized concurrently, at most --jobs at a time.

A checkpoint ID is printed at the start of each run. If the job is interrupted,
use --resume with that ID to skip cells that are already done.

Example:
  humanizer csv -i data.csv -o out.csv -t fr -l 1 -l 3 --header
  humanizer csv -i data.csv -o out.csv -t fr --resume cp_0b0e...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if csvInputFile == csvOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if csvJobs < 1 {
			return fmt.Errorf("--jobs must be at least 1")
		}

		applyHumanizeFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.TargetLang == "" {
			return fmt.Errorf("target language is required (--target or target_lang)")
		}

		f, err := os.Open(csvInputFile)
		if err != nil {
			return fmt.Errorf("failed to open input CSV: %w", err)
		}
		defer f.Close()

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}

		if len(records) == 0 {
			return fmt.Errorf("CSV file is empty")
		}

		ctx := cmd.Context()

		// Open store for checkpoint support.
		var db *store.Store
		if !csvNoCheckpt {
			db, err = app.OpenStore(cfg.History.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
		}

		// Load or create checkpoint.
		var checkpointID string
		completedCells := make(map[string]string)

		if csvResume != "" {
			if db == nil {
				return fmt.Errorf("--resume cannot be combined with --no-checkpoint")
			}
			if _, cpErr := db.GetCSVCheckpoint(ctx, csvResume); cpErr != nil {
				return fmt.Errorf("failed to load checkpoint: %w", cpErr)
			}
			checkpointID = csvResume
			cells, cpErr := db.GetCSVCells(ctx, checkpointID)
			if cpErr != nil {
				return fmt.Errorf("failed to load checkpoint cells: %w", cpErr)
			}
			completedCells = cells
			fmt.Fprintf(os.Stderr, "Resuming checkpoint %s (%d cells already done)\n", checkpointID, len(completedCells))
		} else if db != nil {
			checkpointID, err = db.CreateCSVCheckpoint(ctx, csvInputFile, csvOutputFile, cfg.SourceLang, cfg.TargetLang)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to create checkpoint: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Checkpoint ID: %s (use --resume %s to resume if interrupted)\n", checkpointID, checkpointID)
			}
		}

		t, err := app.NewTranslator(cfg)
		if err != nil {
			return err
		}
		r, err := app.NewRewriter(cfg)
		if err != nil {
			return err
		}
		orch := app.NewOrchestrator(cfg, logger, t, r, app.NewDetector(cfg))

		out := make([][]string, len(records))
		for rowIdx, row := range records {
			out[rowIdx] = append([]string(nil), row...)
		}

		pending := selectCells(records, csvColumns, csvSkipHeader, completedCells, out)
		if len(pending) == 0 {
			fmt.Fprintf(os.Stderr, "Nothing to humanize\n")
		}

		var done atomic.Int32
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(csvJobs)
		for _, c := range pending {
			g.Go(func() error {
				text := orch.Humanize(gctx, c.text, cfg.SourceLang, cfg.TargetLang, cfg.MaxRetries)
				out[c.row][c.col] = text

				if db != nil && checkpointID != "" {
					if err := db.SaveCSVCell(gctx, checkpointID, c.row, c.col, text); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint row %d col %d: %v\n", c.row, c.col, err)
					}
				}
				fmt.Fprintf(os.Stderr, "\r%d/%d cells", done.Add(1), len(pending))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if len(pending) > 0 {
			fmt.Fprintln(os.Stderr)
		}

		outFile, err := os.Create(csvOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output CSV: %w", err)
		}
		defer outFile.Close()

		writer := csv.NewWriter(outFile)
		if err := writer.WriteAll(out); err != nil {
			return fmt.Errorf("failed to write output CSV: %w", err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("failed to flush output CSV: %w", err)
		}

		// Mark checkpoint complete.
		if db != nil && checkpointID != "" {
			_ = db.CompleteCSVCheckpoint(ctx, checkpointID)
		}

		fmt.Printf("CSV humanized successfully: %s\n", csvOutputFile)
		return nil
	},
}

// selectCells returns the non-blank cells still to be humanized. Cells found
// in completed are copied into out instead.
func selectCells(records [][]string, columns []int, skipHeader bool, completed map[string]string, out [][]string) []csvCell {
	colSet := make(map[int]bool, len(columns))
	for _, c := range columns {
		colSet[c] = true
	}
	all := len(columns) == 0

	var pending []csvCell
	for rowIdx, row := range records {
		if skipHeader && rowIdx == 0 {
			continue
		}
		for colIdx, cell := range row {
			if !all && !colSet[colIdx] {
				continue
			}
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if text, ok := completed[store.CellKey(rowIdx, colIdx)]; ok {
				out[rowIdx][colIdx] = text
				continue
			}
			pending = append(pending, csvCell{row: rowIdx, col: colIdx, text: cell})
		}
	}
	return pending
}

func init() {
	rootCmd.AddCommand(csvCmd)

	csvCmd.Flags().StringVarP(&csvInputFile, "input", "i", "", "Input CSV file (required)")
	csvCmd.Flags().StringVarP(&csvOutputFile, "output", "o", "", "Output CSV file (required)")
	csvCmd.Flags().IntSliceVarP(&csvColumns, "column", "l", nil, "Column index to humanize (0-indexed, repeatable; default: all columns)")
	csvCmd.Flags().BoolVar(&csvSkipHeader, "header", false, "Leave the first row untouched")
	csvCmd.Flags().IntVarP(&csvJobs, "jobs", "j", 4, "Cells to humanize concurrently")
	csvCmd.Flags().StringVar(&csvResume, "resume", "", "Resume from checkpoint ID (printed at start of original run)")
	csvCmd.Flags().BoolVar(&csvNoCheckpt, "no-checkpoint", false, "Do not record checkpoints")
	addPipelineFlags(csvCmd)

	csvCmd.MarkFlagRequired("input")
	csvCmd.MarkFlagRequired("output")
}
