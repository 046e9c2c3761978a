package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lvillar/drivepay/config"
	"github.com/lvillar/drivepay/receipt"
)

type slipFlags struct {
	title     string
	breakdown bool
	noQR      bool
}

func (f *slipFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Receipt title")
	cmd.Flags().BoolVar(&f.breakdown, "breakdown", false, "Add the itemised salary table")
	cmd.Flags().BoolVar(&f.noQR, "no-qr", false, "Leave out the QR verification code")
}

func (f *slipFlags) generator() receipt.StaticLayout {
	return receipt.StaticLayout{Title: f.title, ShowBreakdown: f.breakdown, OmitVerificationCode: f.noQR}
}

func (a *app) slipCmd() *cobra.Command {
	var (
		flags  slipFlags
		sheet  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "slip [FILE]",
		Short: "Render a salary receipt from a JSON or YAML file, or a batch from --sheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sheet != "" {
				f, err := os.Open(sheet)
				if err != nil {
					return err
				}
				defer f.Close()
				inputs, err := receipt.ReadSalarySheet(f)
				if err != nil {
					return err
				}
				doc, err := receipt.RenderSlipBatch(cmd.Context(), inputs, flags.generator(), a.cfg.MergeParallelism)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, doc.Bytes, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d receipts, %d pages\n", output, len(inputs), doc.PageCount)
				return nil
			}

			in, err := a.slipInput(args)
			if err != nil {
				return err
			}
			b, err := receipt.RenderSlipBytes(cmd.Context(), in, flags.generator())
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, b, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&sheet, "sheet", "", "xlsx workbook with one salary slip per row")
	cmd.Flags().StringVarP(&output, "output", "o", "salary-receipt.pdf", "Output PDF path")
	return cmd
}

func (a *app) layoutCmd() *cobra.Command {
	var flags slipFlags
	cmd := &cobra.Command{
		Use:   "layout [FILE]",
		Short: "Print the layout a salary receipt would be rendered with as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.slipInput(args)
			if err != nil {
				return err
			}
			if in, err = receipt.Prepare(in); err != nil {
				return err
			}
			l, err := flags.generator().Generate(cmd.Context(), in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(l)
		},
	}
	flags.register(cmd)
	return cmd
}

// slipInput starts from the default slip and applies the file in args, if any.
func (a *app) slipInput(args []string) (receipt.SalarySlipInput, error) {
	in := a.defaults.NewSalarySlip()
	if len(args) == 1 {
		if err := config.DecodeFile(args[0], &in); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (a *app) billCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "bill [FILE]",
		Short: "Render a book order summary from a JSON or YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := a.defaults.NewBookBill()
			if len(args) == 1 {
				if err := config.DecodeFile(args[0], &in); err != nil {
					return err
				}
			}
			b, err := receipt.RenderBookBillBytes(in)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, b, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "order-summary.pdf", "Output PDF path")
	return cmd
}
