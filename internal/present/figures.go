package present

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-advisor/internal/model"
)

// EDA figures produced by the analysis notebooks.
const (
	FigurePriceTrends   = "eda_price_trends_by_city.png"
	FigureAccessibility = "eda_accessibility_vs_investment.png"
)

type figureSpec struct {
	name    string
	title   string
	caption string
	missing string
}

var figureSpecs = []figureSpec{
	{
		name:    FigurePriceTrends,
		title:   "Location Price Trend (EDA)",
		caption: "Top 15 Cities by Average Price per SqFt",
		missing: "Missing EDA image: 'eda_price_trends_by_city.png'. Please run the EDA steps to generate the image.",
	},
	{
		name:    FigureAccessibility,
		title:   "Infrastructure Impact (EDA)",
		caption: "Good Investment Rate by Public Transport Accessibility",
		missing: "Missing EDA image: 'eda_accessibility_vs_investment.png'.",
	},
}

// Figures reports which EDA images exist under dir. A missing image carries
// a note instead of failing the page.
func Figures(dir string) []model.Figure {
	figs := make([]model.Figure, 0, len(figureSpecs))
	for _, spec := range figureSpecs {
		f := model.Figure{Name: spec.name, Title: spec.title, Caption: spec.caption}
		info, err := os.Stat(filepath.Join(dir, spec.name))
		if err == nil && info.Mode().IsRegular() {
			f.Available = true
		} else {
			f.Note = spec.missing
		}
		figs = append(figs, f)
	}
	return figs
}

// FigurePath resolves name to a file under dir. Only the known figure names
// are served, so arbitrary paths cannot escape dir.
func FigurePath(dir, name string) (string, error) {
	for _, spec := range figureSpecs {
		if spec.name == name {
			return filepath.Join(dir, spec.name), nil
		}
	}
	return "", eris.Errorf("present: unknown figure %q", name)
}

// ImportanceSource supplies feature importance tables.
type ImportanceSource interface {
	FeatureImportances(ctx context.Context, modelName string, limit int) (*model.ImportanceTable, error)
}

// Insights is the analytics panel shown below the results.
type Insights struct {
	Importances *model.ImportanceTable `json:"feature_importances"`
	Figures     []model.Figure         `json:"figures"`
}

// LoadInsights gathers the feature importances for modelName and the figure
// availability. A store failure leaves Importances nil; the figures are
// still returned.
func LoadInsights(ctx context.Context, src ImportanceSource, modelName string, top int, figuresDir string) (*Insights, error) {
	out := &Insights{Figures: Figures(figuresDir)}
	table, err := src.FeatureImportances(ctx, modelName, top)
	if err != nil {
		zap.L().Warn("present: feature importances unavailable", zap.String("model", modelName), zap.Error(err))
		return out, eris.Wrap(err, "present: load feature importances")
	}
	out.Importances = table
	return out, nil
}
