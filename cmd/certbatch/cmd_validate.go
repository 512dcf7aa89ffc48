package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/certbatch/internal/certificate"
	"github.com/JonMunkholm/certbatch/internal/core"
)

func newValidateCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a candidate file without generating certificates",
		Long: `Reads a CSV, XLSX, XLS or ODS candidate file and reports how many
candidates it yields, which rows were dropped, and the validation errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, result, err := a.load(cmd.Context(), args[0], certificate.NewMemorySink())
			if result != nil {
				printUpload(cmd.OutOrStdout(), result, all)
			}
			if err != nil {
				return userError(err)
			}
			printCandidates(cmd.OutOrStdout(), svc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every validation error instead of a preview")
	return cmd
}

// printUpload writes the outcome of reading a candidate file.
func printUpload(w io.Writer, r *core.UploadResult, all bool) {
	fmt.Fprintf(w, "%s (%s): %d rows, %d candidates, %d dropped\n",
		r.FileName, r.Format, r.Rows, r.Accepted, len(r.Dropped))

	if len(r.Errors) == 0 {
		return
	}
	fmt.Fprintf(w, "%d validation errors:\n", len(r.Errors))
	if all {
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
		return
	}
	for _, line := range r.ErrorPreview {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func printCandidates(w io.Writer, svc *core.Service) {
	for _, c := range svc.Candidates() {
		fmt.Fprintf(w, "  %-24s %-32s %s\n", c.Name, c.Email, joinCourses(c))
	}
	st := svc.Stats()
	fmt.Fprintf(w, "%d candidates, %d certificates to generate\n", st.TotalCandidates, st.TotalCertificates)
}

// userError replaces errors that have a user message with that message.
func userError(err error) error {
	if core.IsUserFacing(err) {
		return errors.New(core.FormatUserError(err))
	}
	return err
}
