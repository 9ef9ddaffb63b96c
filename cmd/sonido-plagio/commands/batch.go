package commands

import (
	"fmt"
	"runtime"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-plagio/logging"
)

var (
	batchWorkers    int
	batchJSON       bool
	batchNoProgress bool
)

// BatchRow is one ranked candidate
type BatchRow struct {
	File                 string  `json:"file"`
	SimilarityPercentage float64 `json:"similarity_percentage"`
	IsPlagiarized        bool    `json:"is_plagiarized"`
	Error                string  `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <reference> <candidate>...",
	Short: "Rank candidate files by similarity to a reference",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		det, cleanup, err := newDetector()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		reference, candidates := args[0], args[1:]

		ref, err := det.Fingerprint(ctx, reference)
		if err != nil {
			return fmt.Errorf("reference: %w", err)
		}

		var p *mpb.Progress
		var bar *mpb.Bar
		if !batchNoProgress {
			p = mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(cmd.ErrOrStderr()))
			bar = p.AddBar(int64(len(candidates)),
				mpb.PrependDecorators(
					decor.Name("Comparing: "),
					decor.CountersNoUnit("%d / %d"),
				),
				mpb.AppendDecorators(
					decor.Percentage(),
					decor.EwmaETA(decor.ET_STYLE_GO, 60),
				),
			)
		}

		workers := batchWorkers
		if workers <= 0 {
			workers = max(runtime.NumCPU()-1, 2)
		}

		rows := make([]BatchRow, len(candidates))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, path := range candidates {
			g.Go(func() error {
				if bar != nil {
					defer bar.Increment()
				}
				row := BatchRow{File: path}
				fp, err := det.Fingerprint(gctx, path)
				if err == nil {
					res, cmpErr := det.Compare(ref, fp)
					if cmpErr == nil {
						row.SimilarityPercentage = res.SimilarityPercentage
						row.IsPlagiarized = res.IsPlagiarized
					}
					err = cmpErr
				}
				if err != nil {
					logging.Warn("Candidate skipped", logging.Fields{
						"file":  path,
						"error": err.Error(),
					})
					row.Error = err.Error()
				}
				rows[i] = row
				// a bad candidate never aborts the batch
				return gctx.Err()
			})
		}
		waitErr := g.Wait()
		if p != nil {
			p.Wait()
		}
		if waitErr != nil {
			return waitErr
		}

		rankRows(rows)

		if batchJSON {
			return writeJSON(cmd, rows)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tSIMILARITY\tPLAGIARIZED\tFILE")
		for i, r := range rows {
			if r.Error != "" {
				fmt.Fprintf(tw, "-\t-\t-\t%s (%s)\n", r.File, r.Error)
				continue
			}
			fmt.Fprintf(tw, "%d\t%.2f%%\t%t\t%s\n", i+1, r.SimilarityPercentage, r.IsPlagiarized, r.File)
		}
		return tw.Flush()
	},
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "parallel candidates (default NumCPU-1)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the ranking as JSON")
	batchCmd.Flags().BoolVar(&batchNoProgress, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(batchCmd)
}

// rankRows sorts by similarity, highest first, with failed rows last
func rankRows(rows []BatchRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if (rows[i].Error == "") != (rows[j].Error == "") {
			return rows[i].Error == ""
		}
		return rows[i].SimilarityPercentage > rows[j].SimilarityPercentage
	})
}
