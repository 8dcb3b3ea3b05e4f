package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"savdash/adapters/excel"
	"savdash/adapters/export"
	"savdash/domain/core"
	"savdash/domain/dataset"
	"savdash/internal/config"
	"savdash/internal/container"
	"savdash/internal/testkit"
)

func main() {
	var asJSON bool

	rootCmd := &cobra.Command{
		Use:   "savdash-cli",
		Short: "Survey dataset statistics and smart filters from the command line",
	}
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newStatsCmd(&asJSON),
		newQualityCmd(&asJSON),
		newFiltersCmd(&asJSON),
		newExportCmd(),
		newSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newStatsCmd(asJSON *bool) *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "stats [data-file] [variable-code]",
		Short: "Print the frequency table of one variable",
		Long: `Compute the frequency table of a variable, simplified for display.

Example: savdash-cli stats survey.xlsx brand_used --top-n 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ds, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := c.Statistics.VariableStatistics(cmd.Context(), ds.ID, core.VariableCode(args[1]), topN)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(view)
			}

			s := view.Statistics
			fmt.Printf("%s  %s\n", view.Variable.Code, view.Variable.Label)
			fmt.Printf("Total: %s  Valid: %s  Missing: %s (%.2f%%)\n",
				humanize.Comma(int64(s.TotalN)), humanize.Comma(int64(s.ValidN)),
				humanize.Comma(int64(s.MissingN)), s.MissingPercentOfTotal)
			if s.HasManyCategories {
				fmt.Printf("%d categories, showing top %d\n", s.CategoryCount, view.TopN)
			}
			fmt.Println()
			for _, item := range view.Display {
				fmt.Printf("  %-32s %8s %7.2f%% %7.2f%%\n",
					truncate(item.Label, 32), humanize.Comma(int64(item.Count)), item.PercentOfTotal, item.PercentOfValid)
			}
			if n := s.Numeric; n != nil {
				fmt.Printf("\nMean %.2f  Median %.2f  SD %.2f  Min %.2f  Max %.2f\n", n.Mean, n.Median, n.StdDev, n.Min, n.Max)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&topN, "top-n", 0, "Categories kept before grouping into Other (0 uses the configured default)")
	return cmd
}

func newQualityCmd(asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "quality [data-file]",
		Short: "Print the variable quality report of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ds, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := c.Statistics.Quality(cmd.Context(), ds.ID)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(report)
			}

			fmt.Printf("%s: %s respondents, %d variables, mean missing %.2f%%\n\n",
				ds.Name, humanize.Comma(int64(report.TotalN)), report.VariableCount, report.MeanMissingPct)
			for _, v := range report.Variables {
				flags := make([]string, len(v.Flags))
				for i, f := range v.Flags {
					flags[i] = string(f)
				}
				fmt.Printf("  %-20s %-14s valid %8s  missing %6.2f%%  %s\n",
					truncate(string(v.Code), 20), v.Type, humanize.Comma(int64(v.ValidN)), v.MissingPercent, strings.Join(flags, ","))
			}
			return nil
		},
	}
}

func newFiltersCmd(asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "filters [data-file]",
		Short: "Suggest smart filters for a dataset",
		Long: `Generate smart filter suggestions. An external model is used when
SAVDASH_AI_API_KEY is set, otherwise the heuristic classifier.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, ds, err := load(ctx, args[0])
			if err != nil {
				return err
			}
			sess, err := c.Filters.CreateSession(ctx, ds.ID)
			if err != nil {
				return err
			}
			result, err := c.Filters.Generate(ctx, sess.ID)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(result)
			}

			fmt.Printf("Generator: %s\n", result.Audit.GeneratorType)
			if result.Audit.FallbackReason != "" {
				fmt.Printf("Fallback: %s\n", result.Audit.FallbackReason)
			}
			fmt.Println()
			for i, f := range result.Session.Filters {
				vars := make([]string, len(f.SourceVars))
				for j, v := range f.SourceVars {
					vars[j] = string(v)
				}
				fmt.Printf("%2d. %s [%s, score %d] %s\n", i+1, f.Title, f.FilterType, f.SuitabilityScore, strings.Join(vars, ", "))
				if f.Rationale != "" {
					fmt.Printf("    %s\n", f.Rationale)
				}
			}
			for _, d := range result.Audit.Dropped {
				fmt.Printf("  dropped candidate %d (%s): %s\n", d.CandidateIndex, d.Reason, d.Message)
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string
	var format string

	cmd := &cobra.Command{
		Use:   "export [data-file]",
		Short: "Export frequency tables or a filter segmentation",
		Long: `Export all frequency tables (xlsx, csv) or the generated filter
segmentation (json, yaml). The format defaults to the extension of --out.

Example: savdash-cli export survey.xlsx --out frequencies.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(out), ".")
			}
			return runExport(cmd.Context(), args[0], out, strings.ToLower(format))
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file")
	cmd.Flags().StringVar(&format, "format", "", "xlsx|csv|json|yaml")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runExport(ctx context.Context, dataFile, out, format string) error {
	c, ds, err := load(ctx, dataFile)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	switch format {
	case "xlsx", "csv":
		_, all, err := c.Statistics.AllStatistics(ctx, ds.ID)
		if err != nil {
			return err
		}
		tables := make([]export.FrequencyTable, len(all))
		for i, s := range all {
			tables[i] = export.FrequencyTable{Variable: ds.Variables[i], Statistics: s}
		}
		if format == "csv" {
			err = export.WriteFrequenciesCSV(f, tables)
		} else {
			err = export.WriteFrequencies(f, ds.Name, tables)
		}
		if err != nil {
			return err
		}
	default:
		segFormat, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		sess, err := c.Filters.CreateSession(ctx, ds.ID)
		if err != nil {
			return err
		}
		if _, err := c.Filters.Generate(ctx, sess.ID); err != nil {
			return err
		}
		seg, err := c.Filters.Export(ctx, sess.ID)
		if err != nil {
			return err
		}
		if err := export.WriteSegmentation(f, seg, segFormat); err != nil {
			return err
		}
	}

	fmt.Printf("Wrote %s\n", out)
	return nil
}

func newSampleCmd() *cobra.Command {
	var out string
	var respondents int
	var seed int64

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic survey workbook",
		Long: `Generate a deterministic synthetic survey and save it in the
workbook layout the importer reads.

Example: savdash-cli sample --out survey.xlsx --respondents 2000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := testkit.DefaultSurveyConfig()
			cfg.Respondents = respondents
			cfg.Seed = seed

			name := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
			ds := testkit.NewSurveyGenerator(cfg).Generate(name)
			if err := excel.WriteWorkbook(out, ds, excel.DefaultReaderConfig()); err != nil {
				return err
			}

			fmt.Printf("Wrote %s: %s respondents, %d variables\n", out, humanize.Comma(int64(ds.RowCount)), len(ds.Variables))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "survey.xlsx", "Output workbook")
	cmd.Flags().IntVar(&respondents, "respondents", 500, "Number of respondents")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic output")
	return cmd
}

// load builds an in-memory container and imports dataFile into it
func load(ctx context.Context, dataFile string) (*container.Container, *dataset.Dataset, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	name := strings.TrimSuffix(filepath.Base(dataFile), filepath.Ext(dataFile))
	ds, err := c.Datasets.Import(ctx, name, dataFile)
	if err != nil {
		return nil, nil, err
	}
	return c, ds, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
