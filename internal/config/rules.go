package config

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.default.yml
var defaultRulesYAML []byte

// Rules is the immutable rule data the pipeline runs against. Extractor,
// normalizer, detector and scorer receive it explicitly; nothing reads
// package-level tables.
type Rules struct {
	Company      CompanyRules `yaml:"company"`
	Country      CountryRules `yaml:"country"`
	Technologies []TechRule   `yaml:"technologies"`
	Extract      ExtractRules `yaml:"extract"`
	Sites        []SiteRules  `yaml:"sites"`
	Signals      []SignalRule `yaml:"signals"`
	Scoring      ScoringRules `yaml:"scoring"`
}

type CompanyRules struct {
	LegalSuffixes []string `yaml:"legal_suffixes"`
}

type CountryRules struct {
	Aliases   map[string]string `yaml:"aliases"`   // locale name -> country
	Gazetteer map[string]string `yaml:"gazetteer"` // city -> country
	Sources   map[string]string `yaml:"sources"`   // source name -> country
	Codes     map[string]string `yaml:"codes"`     // ISO 3166 alpha-2 -> country
}

type TechRule struct {
	Tag     string `yaml:"tag"`
	Pattern string `yaml:"pattern"`
}

type ExtractRules struct {
	NoiseExact      []string `yaml:"noise_exact"`
	NoiseContains   []string `yaml:"noise_contains"`
	SeparatorRun    string   `yaml:"separator_run"`
	MarkerPatterns  []string `yaml:"marker_patterns"`
	JobURLPattern   string   `yaml:"job_url_pattern"`
	FieldSeparators []string `yaml:"field_separators"`
	MaxBacktrack    int      `yaml:"max_backtrack"`
	MinTitleLength  int      `yaml:"min_title_length"`
	CounterPattern  string   `yaml:"counter_pattern"`
	TrackingParams  []string `yaml:"tracking_params"`
}

// SiteRules describes one job board's card markup.
type SiteRules struct {
	Source            string   `yaml:"source"`
	BaseURL           string   `yaml:"base_url"`
	CardSelectors     []string `yaml:"card_selectors"`
	LinkPattern       string   `yaml:"link_pattern"`
	LinkExclude       string   `yaml:"link_exclude"`
	TitleSelectors    []string `yaml:"title_selectors"`
	CompanySelectors  []string `yaml:"company_selectors"`
	LocationSelectors []string `yaml:"location_selectors"`
	LinkSelector      string   `yaml:"link_selector"`
}

// SignalRule fires when any term of Any matches, every group in All has a
// match, and the company has at least MinJobs jobs. Terms are RE2 patterns
// matched case-insensitively.
type SignalRule struct {
	Type         string     `yaml:"type"`
	Any          []string   `yaml:"any"`
	All          [][]string `yaml:"all,omitempty"`
	MinJobs      int        `yaml:"min_jobs,omitempty"`
	Confidence   string     `yaml:"confidence"`
	Duration     string     `yaml:"duration"`
	ServiceLine  string     `yaml:"service_line"`
	ProjectValue string     `yaml:"project_value"`
	Description  string     `yaml:"description"`
}

type TechPoints struct {
	Tags   []string `yaml:"tags"`
	Points int      `yaml:"points"`
}

type TierRule struct {
	MinScore int    `yaml:"min_score"`
	Name     string `yaml:"name"`
	Action   string `yaml:"action"`
}

type ScoringRules struct {
	WindowDays        int          `yaml:"window_days"`
	MinProspectScore  int          `yaml:"min_prospect_score"`
	JobTypeKeywords   []string     `yaml:"job_type_keywords"`
	SeniorityKeywords []string     `yaml:"seniority_keywords"`
	TechnologyPoints  []TechPoints `yaml:"technology_points"`
	Tiers             []TierRule   `yaml:"tiers"`
}

// DefaultRules returns a fresh copy of the embedded rule tables.
func DefaultRules() Rules {
	var r Rules
	if err := yaml.Unmarshal(defaultRulesYAML, &r); err != nil {
		// embedded file is part of the build
		panic(eris.Wrap(err, "config: embedded rules"))
	}
	return r
}

// DefaultRulesYAML exposes the embedded file for `rules init`.
func DefaultRulesYAML() []byte {
	out := make([]byte, len(defaultRulesYAML))
	copy(out, defaultRulesYAML)
	return out
}

// Site returns the site rules for a source name, or zero rules.
func (r Rules) Site(source string) (SiteRules, bool) {
	for _, s := range r.Sites {
		if equalFold(s.Source, source) {
			return s, true
		}
	}
	return SiteRules{}, false
}
