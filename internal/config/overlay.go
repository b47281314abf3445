package config

import (
	"errors"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadRules returns the embedded defaults with the file at path laid over
// them. A missing file is not an error.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}
	if err := OverlayRules(&rules, path); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// OverlayRules replaces every section that the user file sets.
func OverlayRules(base *Rules, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: read rules %s", path)
	}

	var user Rules
	if err := yaml.Unmarshal(b, &user); err != nil {
		return eris.Wrapf(err, "config: parse rules %s", path)
	}

	if len(user.Company.LegalSuffixes) > 0 {
		base.Company.LegalSuffixes = user.Company.LegalSuffixes
	}
	if len(user.Country.Aliases) > 0 {
		base.Country.Aliases = user.Country.Aliases
	}
	if len(user.Country.Gazetteer) > 0 {
		base.Country.Gazetteer = user.Country.Gazetteer
	}
	if len(user.Country.Sources) > 0 {
		base.Country.Sources = user.Country.Sources
	}
	if len(user.Country.Codes) > 0 {
		base.Country.Codes = user.Country.Codes
	}
	if len(user.Technologies) > 0 {
		base.Technologies = user.Technologies
	}
	overlayExtract(&base.Extract, user.Extract)
	if len(user.Sites) > 0 {
		base.Sites = user.Sites
	}
	if len(user.Signals) > 0 {
		base.Signals = user.Signals
	}
	overlayScoring(&base.Scoring, user.Scoring)
	return nil
}

func overlayExtract(dst *ExtractRules, src ExtractRules) {
	if len(src.NoiseExact) > 0 {
		dst.NoiseExact = src.NoiseExact
	}
	if len(src.NoiseContains) > 0 {
		dst.NoiseContains = src.NoiseContains
	}
	if src.SeparatorRun != "" {
		dst.SeparatorRun = src.SeparatorRun
	}
	if len(src.MarkerPatterns) > 0 {
		dst.MarkerPatterns = src.MarkerPatterns
	}
	if src.JobURLPattern != "" {
		dst.JobURLPattern = src.JobURLPattern
	}
	if len(src.FieldSeparators) > 0 {
		dst.FieldSeparators = src.FieldSeparators
	}
	if src.MaxBacktrack > 0 {
		dst.MaxBacktrack = src.MaxBacktrack
	}
	if src.MinTitleLength > 0 {
		dst.MinTitleLength = src.MinTitleLength
	}
	if src.CounterPattern != "" {
		dst.CounterPattern = src.CounterPattern
	}
	if len(src.TrackingParams) > 0 {
		dst.TrackingParams = src.TrackingParams
	}
}

func overlayScoring(dst *ScoringRules, src ScoringRules) {
	if src.WindowDays > 0 {
		dst.WindowDays = src.WindowDays
	}
	if src.MinProspectScore > 0 {
		dst.MinProspectScore = src.MinProspectScore
	}
	if len(src.JobTypeKeywords) > 0 {
		dst.JobTypeKeywords = src.JobTypeKeywords
	}
	if len(src.SeniorityKeywords) > 0 {
		dst.SeniorityKeywords = src.SeniorityKeywords
	}
	if len(src.TechnologyPoints) > 0 {
		dst.TechnologyPoints = src.TechnologyPoints
	}
	if len(src.Tiers) > 0 {
		dst.Tiers = src.Tiers
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
