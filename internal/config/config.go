package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the engine's runtime settings. Rule tables live in Rules.
type Config struct {
	Data      DataConfig   `mapstructure:"data"`
	RulesPath string       `mapstructure:"rules_path"`
	Log       LogConfig    `mapstructure:"log"`
	Email     EmailConfig  `mapstructure:"email"`
	Web       WebConfig    `mapstructure:"web"`
	Server    ServerConfig `mapstructure:"server"`
}

// DataConfig locates the stores. Relative file names resolve against Dir.
type DataConfig struct {
	Dir           string `mapstructure:"dir"`
	JobsFile      string `mapstructure:"jobs_file"`
	ProspectsFile string `mapstructure:"prospects_file"`
	SQLiteFile    string `mapstructure:"sqlite_file"`
	MetricsFile   string `mapstructure:"metrics_file"`
	Mirror        bool   `mapstructure:"mirror"`
}

func (d DataConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// EmailConfig configures the IMAP job-alert source. The password comes
// from the OS keychain or TREASURY_IMAP_PASSWORD.
type EmailConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	IMAPHost    string   `mapstructure:"imap_host"`
	IMAPPort    int      `mapstructure:"imap_port"`
	Username    string   `mapstructure:"username"`
	Mailbox     string   `mapstructure:"mailbox"`
	DaysBack    int      `mapstructure:"days_back"`
	MaxMessages int      `mapstructure:"max_messages"`
	FromAny     []string `mapstructure:"from_any"`
	SubjectAny  []string `mapstructure:"subject_any"`
	Source      string   `mapstructure:"source"`
}

// WebConfig configures the job-board source.
type WebConfig struct {
	Enabled         bool           `mapstructure:"enabled"`
	Browser         bool           `mapstructure:"browser"`
	ReqPerSec       float64        `mapstructure:"req_per_sec"`
	Burst           int            `mapstructure:"burst"`
	TimeoutSecs     int            `mapstructure:"timeout_secs"`
	MaxCardsPerPage int            `mapstructure:"max_cards_per_page"`
	UserAgent       string         `mapstructure:"user_agent"`
	Searches        []SearchConfig `mapstructure:"searches"`
}

// SearchConfig is one result page to fetch. Context is the search
// location handed to the extractor ("Treasury in Deutschland").
type SearchConfig struct {
	Source  string `mapstructure:"source"`
	URL     string `mapstructure:"url"`
	Context string `mapstructure:"context"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads engine.yml (or path), TREASURY_* env vars and a .env file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !isNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("engine")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TREASURY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data.dir", ".")
	v.SetDefault("data.jobs_file", "treasury_jobs.csv")
	v.SetDefault("data.prospects_file", "prospects.csv")
	v.SetDefault("data.sqlite_file", "treasury.db")
	v.SetDefault("data.metrics_file", "")
	v.SetDefault("data.mirror", false)
	v.SetDefault("rules_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.imap_host", "imap.gmail.com")
	v.SetDefault("email.imap_port", 993)
	v.SetDefault("email.mailbox", "INBOX")
	v.SetDefault("email.days_back", 7)
	v.SetDefault("email.max_messages", 50)
	v.SetDefault("email.from_any", []string{"jobalerts-noreply@linkedin.com"})
	v.SetDefault("email.subject_any", []string{})
	v.SetDefault("email.source", "LinkedIn")
	v.SetDefault("web.enabled", false)
	v.SetDefault("web.browser", false)
	v.SetDefault("web.req_per_sec", 0.5)
	v.SetDefault("web.burst", 1)
	v.SetDefault("web.timeout_secs", 30)
	v.SetDefault("web.max_cards_per_page", 30)
	v.SetDefault("web.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("web.searches", defaultSearches())
	v.SetDefault("server.addr", "127.0.0.1:38471")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func defaultSearches() []map[string]any {
	return []map[string]any{
		{"source": "StepStone.de", "url": "https://www.stepstone.de/jobs/treasury?location=Deutschland", "context": "Treasury in Deutschland"},
		{"source": "StepStone.de", "url": "https://www.stepstone.de/jobs/cash-manager?location=Deutschland", "context": "Cash Manager in Deutschland"},
		{"source": "StepStone.de", "url": "https://www.stepstone.de/jobs/treasury?location=München", "context": "Treasury in München"},
		{"source": "StepStone.de", "url": "https://www.stepstone.de/jobs/liquidity?location=Frankfurt", "context": "Liquidity in Frankfurt"},
		{"source": "Jobs.ch", "url": "https://www.jobs.ch/en/vacancies/?term=Treasury", "context": "Treasury in Switzerland"},
		{"source": "Jobs.ch", "url": "https://www.jobs.ch/en/vacancies/?term=Cash%20Manager", "context": "Cash Manager in Switzerland"},
		{"source": "Jobs.ch", "url": "https://www.jobs.ch/en/vacancies/?term=Liquidit%C3%A4t", "context": "Liquidität in Switzerland"},
	}
}

// InitLogger replaces the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
