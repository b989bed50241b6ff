package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"groupstat/adapters/excel"
	domstats "groupstat/domain/stats"
	"groupstat/internal/analysis"
	"groupstat/internal/report"
	"groupstat/internal/sweep"
	"groupstat/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "groupstat-cli",
		Short: "Groupstat CLI for assumption-driven group comparisons",
	}

	rootCmd.AddCommand(
		newOmnibusCmd(),
		newSummaryCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type optionFlags struct {
	alpha   float64
	adjust  string
	missing string
	seed    int64
}

func (f *optionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0.05, "Significance threshold")
	cmd.Flags().StringVar(&f.adjust, "adjust", "holm", "P-value adjustment for post-hoc contrasts")
	cmd.Flags().StringVar(&f.missing, "missing", "drop", "Missing-data policy (drop or mark_exclude)")
	cmd.Flags().Int64Var(&f.seed, "seed", 1, "Random seed for Monte-Carlo p-values")
}

func (f *optionFlags) build() (analysis.Options, error) {
	adjust, err := domstats.ParseAdjustMethod(f.adjust)
	if err != nil {
		return analysis.Options{}, err
	}
	missing, err := domstats.ParseMissingPolicy(f.missing)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Alpha:         f.alpha,
		Adjustment:    adjust,
		MissingPolicy: missing,
		Seed:          f.seed,
	}, nil
}

func newOmnibusCmd() *cobra.Command {
	var file, response, factor, pairedBy string
	flags := &optionFlags{}

	cmd := &cobra.Command{
		Use:   "omnibus",
		Short: "Compare a numeric response across factor levels",
		Long: `Run the assumption-driven k-group comparison on a CSV or Excel file.

Example: groupstat-cli omnibus --file trial.csv --response score --factor arm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.build()
			if err != nil {
				return err
			}

			frame, err := excel.NewDataReader(file).ReadFrame()
			if err != nil {
				return err
			}

			engine := analysis.NewEngine()
			result, err := engine.Omnibus(analysis.OmnibusRequest{
				Frame:    frame,
				Response: response,
				Factor:   factor,
				PairedBy: pairedBy,
				Options:  opts,
			})
			if err != nil {
				return err
			}

			fmt.Println(report.NewFormatter().OmnibusMarkdown(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to CSV or XLSX data file")
	cmd.Flags().StringVar(&response, "response", "", "Numeric response column")
	cmd.Flags().StringVar(&factor, "factor", "", "Categorical grouping column")
	cmd.Flags().StringVar(&pairedBy, "paired-by", "", "Subject column for repeated-measures designs")
	flags.register(cmd)
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("response")
	cmd.MarkFlagRequired("factor")

	return cmd
}

func newSummaryCmd() *cobra.Command {
	var file, factor string
	var exclude []string
	flags := &optionFlags{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Build a two-group summary table across every column",
		Long: `Run pairwise comparisons of every column against a two-level factor.

Example: groupstat-cli summary --file cohort.csv --factor arm --exclude subject_id`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.build()
			if err != nil {
				return err
			}

			frame, err := excel.NewDataReader(file).ReadFrame()
			if err != nil {
				return err
			}

			table, err := sweep.NewGenerator().SummaryTable(context.Background(), frame, factor, opts, exclude...)
			if err != nil {
				return err
			}

			fmt.Println(report.NewFormatter().SummaryMarkdown(table))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to CSV or XLSX data file")
	cmd.Flags().StringVar(&factor, "factor", "", "Two-level grouping column")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Columns to skip")
	flags.register(cmd)
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("factor")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var seed int64
	var perArm int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the engine against a generated cohort",
		Long: `Generate a synthetic two-arm cohort and print its summary table.

Example: groupstat-cli demo --seed 42 --per-arm 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := testkit.GenerateCohort(seed, perArm)
			if err != nil {
				return err
			}

			opts := analysis.Options{
				Alpha:         0.05,
				Adjustment:    domstats.AdjustHolm,
				MissingPolicy: domstats.MissingDrop,
				Seed:          seed,
			}

			table, err := sweep.NewGenerator().SummaryTable(context.Background(), frame, "arm", opts)
			if err != nil {
				return err
			}

			fmt.Println(report.NewFormatter().SummaryMarkdown(table))
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for the generated cohort")
	cmd.Flags().IntVar(&perArm, "per-arm", 40, "Observations per study arm")

	return cmd
}
