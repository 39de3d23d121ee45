package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/property-advisor/internal/advisor"
	"github.com/sells-group/property-advisor/internal/present"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score a single property described by flags",
	Example: `  property-advisor predict --city Mumbai --state Maharashtra --bhk 2 --size 1200
  property-advisor predict --city Pune --property-type "Independent House" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("predict"); err != nil {
			return err
		}

		in := predictInput(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")

		adv, err := loadAdvisor(cmd.Context(), cfg.Models)
		if err != nil {
			return err
		}
		return runPredict(cmd.OutOrStdout(), adv, in, asJSON)
	},
}

func init() {
	def := present.DefaultInput()
	f := predictCmd.Flags()
	f.String("state", def.State, "state")
	f.String("city", def.City, "city")
	f.String("property-type", def.PropertyType, "Apartment or Independent House")
	f.Int("bhk", present.DefaultBHK, "bedrooms, hall, kitchen (1-6)")
	f.Int("size", present.DefaultSizeSqFt, "size in square feet (500-10000)")
	f.Int("year-built", present.DefaultYearBuilt, "year built (1950-2025)")
	f.String("furnished", def.FurnishedStatus, "Furnished, Semi-furnished or Unfurnished")
	f.String("transport", def.PublicTransport, "public transport accessibility: High, Medium or Low")
	f.String("parking", def.ParkingSpace, "parking space: Yes or No")
	f.String("security", def.Security, "security: Yes or No")
	f.String("owner-type", def.OwnerType, "Owner, Builder or Broker")
	f.Bool("json", false, "print the analysis as JSON")

	rootCmd.AddCommand(predictCmd)
}

func predictInput(cmd *cobra.Command) present.RawInput {
	f := cmd.Flags()
	str := func(name string) string { v, _ := f.GetString(name); return v }
	num := func(name string) json.Number { v, _ := f.GetInt(name); return json.Number(fmt.Sprint(v)) }

	return present.RawInput{
		State:           str("state"),
		City:            str("city"),
		PropertyType:    str("property-type"),
		BHK:             num("bhk"),
		SizeSqFt:        num("size"),
		YearBuilt:       num("year-built"),
		FurnishedStatus: str("furnished"),
		PublicTransport: str("transport"),
		ParkingSpace:    str("parking"),
		Security:        str("security"),
		OwnerType:       str("owner-type"),
	}
}

// runPredict scores one input and prints the recommendation.
func runPredict(w io.Writer, adv *advisor.Advisor, in present.RawInput, asJSON bool) error {
	rec, err := in.Record()
	if err != nil {
		return err
	}
	res, err := adv.Infer(rec)
	if err != nil {
		return eris.Wrap(err, present.ErrorMessage(err))
	}
	analysis := present.NewAnalysis(uuid.NewString(), res)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(analysis), "predict: encode json")
	}

	fmt.Fprintln(w, "Investment Recommendation")
	fmt.Fprintln(w, "  "+analysis.Recommendation)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Price Forecast (After 5 Years)")
	fmt.Fprintln(w, "  Estimated Value After 5 Years: "+analysis.Forecast)
	return nil
}
