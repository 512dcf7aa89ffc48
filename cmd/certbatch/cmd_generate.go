package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/certificate"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		outDir string
		export bool
	)

	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Generate a PDF certificate for every candidate course",
		Long: `Reads a candidate file and writes one PDF certificate per candidate and
course to the output directory. With --export the batch export JSON is
written next to the certificates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.cfg.Certificate.OutputDir
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			svc, result, err := a.load(ctx, args[0], certificate.DirSink{Dir: outDir})
			if result != nil {
				printUpload(out, result, false)
			}
			if err != nil {
				return userError(err)
			}

			runID, err := svc.StartBatch(ctx)
			if err != nil {
				return userError(err)
			}
			summary, err := followRun(ctx, out, svc, runID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Generated %d certificates for %d of %d candidates in %s (%d failed)\n",
				summary.Generated, summary.Completed, summary.Candidates, summary.Duration.Round(time.Millisecond), summary.Failed)

			if export {
				exp := svc.ExportBatch(ctx)
				data, err := exp.JSON()
				if err != nil {
					return fmt.Errorf("encode export: %w", err)
				}
				path := filepath.Join(outDir, batch.ExportFileName(exp.Metadata.BatchID))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(out, "Export written to %s\n", path)
			}

			if summary.Cancelled {
				return fmt.Errorf("batch cancelled: %w", context.Canceled)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d candidates had certificates that could not be generated", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default $CERT_OUTPUT_DIR)")
	cmd.Flags().BoolVar(&export, "export", false, "also write the batch export JSON")
	return cmd
}

// batchRun is the part of the service that drives a started run.
type batchRun interface {
	SubscribeProgress(runID string) (<-chan batch.Progress, error)
	CancelBatch(runID string) error
	WaitForBatch(ctx context.Context, runID string) (batch.Summary, error)
}

// followRun prints progress for a run until it finishes. When ctx ends the
// run is cancelled and followed until it stops.
func followRun(ctx context.Context, out io.Writer, svc batchRun, runID string) (batch.Summary, error) {
	progress, err := svc.SubscribeProgress(runID)
	if err != nil {
		return batch.Summary{}, err
	}

	done := ctx.Done()
	for progress != nil {
		select {
		case p, ok := <-progress:
			if !ok {
				progress = nil
				continue
			}
			if p.Phase != batch.PhaseProcessing {
				continue
			}
			switch {
			case p.Status == batch.StatusError:
				fmt.Fprintf(out, "  failed  %s: %s\n", p.CandidateName, p.Error)
			case p.Status == batch.StatusProcessing && p.Course != "":
				fmt.Fprintf(out, "  [%3d%%] %s: %s\n", p.Percent(), p.CandidateName, p.Course)
			}
		case <-done:
			done = nil
			fmt.Fprintln(out, "Cancelling batch...")
			if err := svc.CancelBatch(runID); err != nil {
				return batch.Summary{}, err
			}
		}
	}

	return svc.WaitForBatch(context.WithoutCancel(ctx), runID)
}
