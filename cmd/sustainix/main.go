// Command sustainix converts spreadsheet workbooks into structured
// sustainability reports from the command line.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sustainix/sustainix/internal/convert"
	"github.com/sustainix/sustainix/internal/excel"
	"github.com/sustainix/sustainix/internal/render"
	"github.com/sustainix/sustainix/internal/report"
	"github.com/sustainix/sustainix/internal/taxonomy"
)

func main() {
	root := &cobra.Command{
		Use:           "sustainix",
		Short:         "Convert spreadsheet workbooks into sustainability reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(convertCmd(), taxonomyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func convertCmd() *cobra.Command {
	var (
		taxonomyPath string
		defaultsPath string
		outPath      string
		entity       string
		currency     string
		periodStart  string
		periodEnd    string
		instantDate  string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "convert <workbook.xlsx>",
		Short: "Convert a workbook's named ranges into a rendered report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := taxonomy.LoadFile(taxonomyPath)
			if err != nil {
				return fmt.Errorf("loading taxonomy: %w", err)
			}
			defaults, err := convert.LoadDefaults(defaultsPath)
			if err != nil {
				return fmt.Errorf("loading defaults: %w", err)
			}

			cfg := convert.Config{Entity: entity, Currency: currency, Strict: strict}
			if cfg.PeriodStart, err = parseDate(periodStart); err != nil {
				return fmt.Errorf("invalid --period-start: %w", err)
			}
			if cfg.PeriodEnd, err = parseDate(periodEnd); err != nil {
				return fmt.Errorf("invalid --period-end: %w", err)
			}
			if cfg.InstantDate, err = parseDate(instantDate); err != nil {
				return fmt.Errorf("invalid --instant: %w", err)
			}

			values, err := excel.ExtractFile(args[0])
			if err != nil {
				return fmt.Errorf("reading workbook: %w", err)
			}

			result := convert.Convert(tax, cfg, defaults, values)
			for _, msg := range result.Messages {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", msg.Severity, msg.Text)
			}
			if result.HasErrors() {
				return fmt.Errorf("conversion failed with %d facts assembled", result.Facts.Len())
			}

			model, skipped := report.Organize(tax, result.Entity, result.Facts)
			for _, s := range skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "info: section %q skipped: %s\n", s.Label, s.Reason)
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer out.Close()
			if err := render.Document(tax, model).Render(cmd.Context(), out); err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d facts, %d sections)\n",
				outPath, result.Facts.Len(), len(model.Sections))
			return nil
		},
	}

	cmd.Flags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy document to convert against (required)")
	cmd.Flags().StringVar(&defaultsPath, "defaults", "", "conversion defaults file (aliases, unit replacements)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "report.html", "output report file")
	cmd.Flags().StringVar(&entity, "entity", "", "reporting entity name (workbook metadata takes precedence)")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "report currency for monetary facts")
	cmd.Flags().StringVar(&periodStart, "period-start", "", "reporting period start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&periodEnd, "period-end", "", "reporting period end (YYYY-MM-DD)")
	cmd.Flags().StringVar(&instantDate, "instant", "", "instant date for balance facts (defaults to period end)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat conversion warnings as errors")
	cmd.MarkFlagRequired("taxonomy")

	return cmd
}

func taxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy <taxonomy.json> [more.json...]",
		Short: "Inspect taxonomy documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				tax, err := taxonomy.LoadFile(path)
				if err != nil {
					return fmt.Errorf("loading taxonomy %s: %w", path, err)
				}
				taxonomy.Register(tax)
			}

			out := cmd.OutOrStdout()
			for _, ep := range taxonomy.EntryPoints() {
				tax, _ := taxonomy.Get(ep)
				fmt.Fprintf(out, "entry point: %s\n", tax.EntryPoint())
				fmt.Fprintf(out, "version:     %s\n", tax.Version())
				fmt.Fprintf(out, "concepts:    %d\n", tax.ConceptCount())
				fmt.Fprintln(out, "presentation groups:")
				for _, group := range tax.Groups() {
					fmt.Fprintf(out, "  %-8s %s\n", group.Style, group.Label)
				}
			}
			return nil
		},
	}
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
