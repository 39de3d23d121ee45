package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/property-advisor/internal/artifact"
	"github.com/sells-group/property-advisor/internal/config"
	"github.com/sells-group/property-advisor/internal/model"
	"github.com/sells-group/property-advisor/internal/store"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Manage the feature importance tables shown in the insights panel",
}

var insightsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the insights tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("insights"); err != nil {
			return err
		}
		st, err := initStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		fmt.Fprintf(cmd.OutOrStdout(), "insights store migrated (%s)\n", cfg.Store.Driver)
		return nil
	},
}

var insightsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace a model's feature importance table",
	Long: "Seeds the table from a YAML file (--file), from the illustrative placeholder " +
		"(--placeholder), or from the coefficient weights of a loaded pipeline (default).",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("insights"); err != nil {
			return err
		}
		src := seedSource{
			file:        seedFile,
			placeholder: seedPlaceholder,
			pipeline:    seedPipeline,
			model:       seedModel,
		}
		if src.model == "" {
			src.model = cfg.Insights.Model
		}

		ctx := cmd.Context()
		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return runInsightsSeed(ctx, cmd.OutOrStdout(), st, cfg.Models, src)
	},
}

var insightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a model's feature importance table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("insights"); err != nil {
			return err
		}
		name := showModel
		if name == "" {
			name = cfg.Insights.Model
		}

		ctx := cmd.Context()
		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return runInsightsShow(ctx, cmd.OutOrStdout(), st, name, cfg.Insights.TopFeatures)
	},
}

var (
	seedFile        string
	seedPlaceholder bool
	seedPipeline    string
	seedModel       string
	showModel       string
)

func init() {
	insightsSeedCmd.Flags().StringVar(&seedFile, "file", "", "YAML file with model and features")
	insightsSeedCmd.Flags().BoolVar(&seedPlaceholder, "placeholder", false, "seed the illustrative placeholder table")
	insightsSeedCmd.Flags().StringVar(&seedPipeline, "pipeline", "regressor", "pipeline to derive weights from (classifier or regressor)")
	insightsSeedCmd.Flags().StringVar(&seedModel, "model", "", "model name to store the table under (default insights.model)")
	insightsShowCmd.Flags().StringVar(&showModel, "model", "", "model name to show (default insights.model)")

	insightsCmd.AddCommand(insightsMigrateCmd)
	insightsCmd.AddCommand(insightsSeedCmd)
	insightsCmd.AddCommand(insightsShowCmd)
	rootCmd.AddCommand(insightsCmd)
}

// seedSource selects where seeded importances come from.
type seedSource struct {
	file        string
	placeholder bool
	pipeline    string
	model       string
}

func runInsightsSeed(ctx context.Context, w io.Writer, st store.Store, models config.ModelsConfig, src seedSource) error {
	name := src.model
	var features []model.FeatureImportance

	switch {
	case src.file != "" && src.placeholder:
		return eris.New("insights: --file and --placeholder are mutually exclusive")
	case src.file != "":
		sf, err := store.ReadSeedFile(src.file)
		if err != nil {
			return err
		}
		if sf.Model != "" {
			name = sf.Model
		}
		features = sf.Importances()
	case src.placeholder:
		features = store.PlaceholderImportances
	default:
		weights, err := pipelineWeights(models, src.pipeline)
		if err != nil {
			return err
		}
		features = make([]model.FeatureImportance, len(weights))
		for i, fw := range weights {
			features[i] = model.FeatureImportance{Feature: fw.Feature, Score: fw.Weight}
		}
	}

	if err := st.ReplaceFeatureImportances(ctx, name, features); err != nil {
		return err
	}
	zap.L().Info("insights: seeded feature importances",
		zap.String("model", name),
		zap.Int("features", len(features)),
	)
	fmt.Fprintf(w, "seeded %d features for %s\n", len(features), name)
	return nil
}

// pipelineWeights loads one pipeline and ranks its encoded features.
func pipelineWeights(models config.ModelsConfig, pipeline string) ([]artifact.FeatureWeight, error) {
	paths, err := modelPaths(models)
	if err != nil {
		return nil, err
	}
	switch pipeline {
	case "classifier":
		c, err := artifact.LoadClassifier(paths.Classifier, paths.ClassifierSHA256)
		if err != nil {
			return nil, err
		}
		return c.FeatureWeights(), nil
	case "regressor":
		r, err := artifact.LoadRegressor(paths.Regressor, paths.RegressorSHA256)
		if err != nil {
			return nil, err
		}
		return r.FeatureWeights(), nil
	default:
		return nil, eris.Errorf("insights: unknown pipeline %q (want classifier or regressor)", pipeline)
	}
}

func runInsightsShow(ctx context.Context, w io.Writer, st store.Store, name string, limit int) error {
	table, err := st.FeatureImportances(ctx, name, limit)
	if err != nil {
		return err
	}
	if len(table.Features) == 0 {
		fmt.Fprintf(w, "no feature importances stored for %s\n", name)
		return nil
	}

	label := name
	if table.Placeholder {
		label += " (placeholder)"
	}
	fmt.Fprintf(w, "Top %d features: %s\n", len(table.Features), label)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tSCORE")
	for _, f := range table.Features {
		fmt.Fprintf(tw, "%s\t%.4f\n", f.Feature, f.Score)
	}
	return tw.Flush()
}
