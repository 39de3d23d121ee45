package store

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/property-advisor/internal/model"
)

// SeedFile is the YAML layout accepted by "insights seed --file".
//
//	model: reg_pipeline
//	features:
//	  - feature: Price_per_SqFt
//	    score: 0.45
type SeedFile struct {
	Model    string        `yaml:"model"`
	Features []SeedFeature `yaml:"features"`
}

// SeedFeature is one entry of a SeedFile.
type SeedFeature struct {
	Feature string  `yaml:"feature"`
	Score   float64 `yaml:"score"`
}

// ReadSeedFile parses and validates a seed file.
func ReadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read seed file %s", path)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, eris.Wrapf(err, "store: parse seed file %s", path)
	}
	if len(sf.Features) == 0 {
		return nil, eris.Errorf("store: seed file %s lists no features", path)
	}
	return &sf, nil
}

// Importances converts the file entries to model rows.
func (sf *SeedFile) Importances() []model.FeatureImportance {
	out := make([]model.FeatureImportance, len(sf.Features))
	for i, f := range sf.Features {
		out[i] = model.FeatureImportance{Feature: f.Feature, Score: f.Score}
	}
	return out
}
