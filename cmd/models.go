package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/config"
	"github.com/sells-group/property-advisor/internal/present"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the pipeline artifacts",
}

var modelsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Load both pipelines, check schema agreement and run a smoke inference",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("predict"); err != nil {
			return err
		}
		return runModelsVerify(cmd.Context(), cmd.OutOrStdout(), cfg.Models)
	},
}

func init() {
	modelsCmd.AddCommand(modelsVerifyCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsVerify(ctx context.Context, w io.Writer, c config.ModelsConfig) error {
	paths, err := modelPaths(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "classifier  %s  sha256: %s\n", paths.Classifier, pinned(paths.ClassifierSHA256))
	fmt.Fprintf(w, "regressor   %s  sha256: %s\n", paths.Regressor, pinned(paths.RegressorSHA256))

	adv, err := loadAdvisor(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "loaded      %d input columns\n", len(advisor.Columns))
	for _, p := range adv.Pipelines() {
		line := fmt.Sprintf("pipeline    %s  stage: %s  columns: %d", p.Name, p.Stage, p.Columns)
		if p.Stage == advisor.StageClassification {
			line += fmt.Sprintf("  threshold: %.2f", p.Threshold)
		}
		fmt.Fprintln(w, line)
	}

	if drift := adv.SchemaDrift(); len(drift) > 0 {
		for _, d := range drift {
			fmt.Fprintf(w, "drift       %s\n", d)
		}
		return eris.Errorf("models: %d schema differences between application and artifacts", len(drift))
	}

	rec, err := present.DefaultInput().Record()
	if err != nil {
		return eris.Wrap(err, "models: default input")
	}
	res, err := adv.Infer(rec)
	if err != nil {
		return eris.Wrap(err, "models: smoke inference")
	}
	fmt.Fprintf(w, "smoke       %s / %s\n", present.Recommendation(res), present.Forecast(res.ForecastValueLakhs))
	fmt.Fprintln(w, "OK")
	return nil
}

func pinned(digest string) string {
	if digest == "" {
		return "not pinned"
	}
	return digest
}
