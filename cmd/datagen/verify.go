package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nyos/apr/internal/application/generation"
)

func newVerifyCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify archive.zip...",
		Short: "Re-read archives and check every CSV against manifest.json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				v, err := generation.VerifyArchive(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printVerification(cmd, path, v)
				if !v.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d archives failed verification", failed, len(args))
			}
			return nil
		},
	}
}

func printVerification(cmd *cobra.Command, path string, v *generation.Verification) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (run %s, %s..%s)\n", path, v.Manifest.RunID, v.Manifest.PeriodStart, v.Manifest.PeriodEnd)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  FILE\tEXPECTED\tACTUAL\tSTATUS")
	for _, f := range v.Files {
		status := "ok"
		if !f.OK() {
			status = strings.Join(f.Problems, "; ")
		}
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%s\n", f.FileName, f.Expected, f.Actual, status)
	}
	_ = tw.Flush()
}
