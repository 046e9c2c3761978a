package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lvillar/drivepay/pageops"
)

func (a *app) mergeCmd() *cobra.Command {
	var (
		output      string
		numberPages bool
		position    string
	)
	cmd := &cobra.Command{
		Use:   "merge FILE FILE...",
		Short: "Merge PDF files in the order given",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := pageops.LoadFiles(args...)
			if err != nil {
				return err
			}
			combiner := pageops.NewCombiner(pageops.WithParallelism(a.cfg.MergeParallelism))
			doc, err := combiner.Merge(cmd.Context(), docs...)
			if err != nil {
				return err
			}
			out := doc.Bytes
			if numberPages {
				out, err = pageops.NumberPages(out, pageops.PageNumberStyle{Position: pageops.ParsePosition(position)})
				if err != nil {
					return err
				}
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages from %d files\n", output, doc.PageCount, len(docs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "merged.pdf", "Output PDF path")
	cmd.Flags().BoolVar(&numberPages, "number-pages", false, "Stamp 'Page i of n' on the merged pages")
	cmd.Flags().StringVar(&position, "position", "bottom-center", "Page number position")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Print the version, page count and page sizes of a PDF as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			info, err := pageops.Inspect(b)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
