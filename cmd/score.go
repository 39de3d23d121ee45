package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/model"
	"github.com/sells-group/property-advisor/internal/present"
	"github.com/sells-group/property-advisor/internal/sheet"
)

var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Score every property in a CSV or XLSX file",
	Long: `Score every property row of a CSV or XLSX file and write one CSV result
row per input row.

The first row must be a header. Both API field names (size_sqft) and dataset
column names (Size_in_SqFt) are accepted; derived columns such as
Age_of_Property or Price_per_SqFt are ignored and recomputed.

Rows with invalid values or categories the model does not know are reported
in the error columns and scoring continues. A schema mismatch between the
application and the model files stops the run.

Examples:
  score listings.csv --output scored.csv
  score listings.xlsx --sheet Pune`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("output", "", "output file path (default: stdout)")
	f.String("sheet", "", "XLSX sheet name (default: first sheet)")
	f.String("delimiter", ",", "CSV field delimiter")

	rootCmd.AddCommand(scoreCmd)
}

// scoreSummary counts batch outcomes.
type scoreSummary struct {
	Rows   int
	Scored int
	Good   int
	Failed int
}

var scoreHeader = []string{
	"line", "state", "city", "property_type", "bhk", "size_sqft", "year_built",
	"furnished_status", "public_transport_accessibility", "parking_space", "security", "owner_type",
	"is_good_investment", "confidence", "forecast_value_lakhs", "recommendation", "error_kind", "error_message",
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("score"); err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	sheetName, _ := cmd.Flags().GetString("sheet")
	delim, _ := cmd.Flags().GetString("delimiter")
	if utf8.RuneCountInString(delim) != 1 {
		return eris.Errorf("score: --delimiter must be a single character (got %q)", delim)
	}
	d, _ := utf8.DecodeRuneInString(delim)

	adv, err := loadAdvisor(ctx, cfg.Models)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	sum, err := scoreFile(ctx, adv, args[0], sheet.Options{SheetName: sheetName, Delimiter: d}, w)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Scored %d of %d rows (%d good investments, %d failed)\n",
		sum.Scored, sum.Rows, sum.Good, sum.Failed)
	return nil
}

// scoreFile scores path row by row and writes CSV results to w.
func scoreFile(ctx context.Context, adv *advisor.Advisor, path string, opts sheet.Options, w io.Writer) (scoreSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := zap.L().With(zap.String("command", "score"), zap.String("input", path))
	var sum scoreSummary

	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write(scoreHeader); err != nil {
		return sum, eris.Wrap(err, "score: write CSV header")
	}

	recCh, errCh := sheet.Stream(ctx, path, opts)
	for r := range recCh {
		sum.Rows++
		out := inputColumns(r.Line, r.Input)

		res, err := scoreRow(adv, r.Input)
		switch {
		case err == nil:
			sum.Scored++
			if res.IsGoodInvestment {
				sum.Good++
			}
			out = append(out,
				strconv.FormatBool(res.IsGoodInvestment),
				strconv.FormatFloat(res.Confidence, 'f', 4, 64),
				strconv.FormatFloat(res.ForecastValueLakhs, 'f', 2, 64),
				present.Recommendation(res),
				"", "",
			)
		case advisor.KindOf(err) == advisor.SchemaMismatch:
			log.Error("score: schema mismatch, stopping", zap.Int("line", r.Line), zap.Error(err))
			return sum, eris.Wrapf(err, "score: line %d", r.Line)
		default:
			sum.Failed++
			kind := string(advisor.KindOf(err))
			if kind == "" {
				kind = kindInvalidInput
			}
			log.Debug("score: row failed", zap.Int("line", r.Line), zap.String("kind", kind), zap.Error(err))
			out = append(out, "", "", "", "", kind, present.ErrorMessage(err))
		}

		if err := cw.Write(out); err != nil {
			return sum, eris.Wrap(err, "score: write CSV row")
		}
	}
	if err := <-errCh; err != nil {
		return sum, eris.Wrapf(err, "score: read %s", path)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return sum, eris.Wrap(err, "score: flush CSV")
	}

	log.Info("score: complete",
		zap.Int("rows", sum.Rows),
		zap.Int("scored", sum.Scored),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func scoreRow(adv *advisor.Advisor, in present.RawInput) (*model.InferenceResult, error) {
	rec, err := in.Record()
	if err != nil {
		return nil, err
	}
	return adv.Infer(rec)
}

func inputColumns(line int, in present.RawInput) []string {
	return []string{
		strconv.Itoa(line), in.State, in.City, in.PropertyType,
		string(in.BHK), string(in.SizeSqFt), string(in.YearBuilt),
		in.FurnishedStatus, in.PublicTransport, in.ParkingSpace, in.Security, in.OwnerType,
	}
}
