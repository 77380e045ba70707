package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRedThreshold   = 40.0
	DefaultGreenThreshold = 70.0

	EnvPrefix = "SCREENER"
)

// Config is built once at startup and handed to every component constructor.
type Config struct {
	Scoring        ScoringConfig     `mapstructure:"scoring" json:"scoring"`
	LLM            LLMConfig         `mapstructure:"llm" json:"llm"`
	EmailTemplates map[string]string `mapstructure:"email_templates" json:"email_templates"`
	Batch          BatchConfig       `mapstructure:"batch" json:"batch"`
	Outbox         OutboxConfig      `mapstructure:"outbox" json:"outbox"`
}

type ScoringConfig struct {
	RedThreshold   float64            `mapstructure:"red_threshold" json:"red_threshold"`
	GreenThreshold float64            `mapstructure:"green_threshold" json:"green_threshold"`
	BonusWeights   map[string]float64 `mapstructure:"bonus_weights" json:"bonus_weights"`
}

type LLMConfig struct {
	Provider       string        `mapstructure:"provider" json:"provider"`
	Model          string        `mapstructure:"model" json:"model"`
	APIKeyFile     string        `mapstructure:"api_key_file" json:"api_key_file"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	TotalTimeout   time.Duration `mapstructure:"total_timeout" json:"total_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts" json:"max_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay" json:"retry_delay"`
	MaxLogLength   int           `mapstructure:"max_log_length" json:"max_log_length"`
	Gemini         GeminiConfig  `mapstructure:"gemini" json:"gemini"`
	OpenAI         OpenAIConfig  `mapstructure:"openai" json:"openai"`
}

type GeminiConfig struct {
	Model          string   `mapstructure:"model" json:"model"`
	FallbackModels []string `mapstructure:"fallback_models" json:"fallback_models"`
	Discover       bool     `mapstructure:"discover" json:"discover"`
}

type OpenAIConfig struct {
	BaseURL        string   `mapstructure:"base_url" json:"base_url"`
	FallbackModels []string `mapstructure:"fallback_models" json:"fallback_models"`
}

type BatchConfig struct {
	Workers     int      `mapstructure:"workers" json:"workers"`
	Extensions  []string `mapstructure:"extensions" json:"extensions"`
	MaxPDFPages int      `mapstructure:"max_pdf_pages" json:"max_pdf_pages"`
}

type OutboxConfig struct {
	Dir     string `mapstructure:"dir" json:"dir"`
	From    string `mapstructure:"from" json:"from"`
	Subject string `mapstructure:"subject" json:"subject"`
}

// ConfigurationError describes a configuration problem that was recovered by
// falling back to defaults.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DefaultTemplates are used for every status without a configured template.
func DefaultTemplates() map[string]string {
	return map[string]string{
		"green": "Dear {candidate_name},\n\nThank you for applying. Your profile is a strong match for the role " +
			"(score {score}) and we would like to invite you to an interview.\n\nBest regards,\nRecruiting Team",
		"yellow": "Dear {candidate_name},\n\nThank you for applying. Your application is under review and we " +
			"will get back to you shortly.\n\nBest regards,\nRecruiting Team",
		"red": "Dear {candidate_name},\n\nThank you for your interest. After careful consideration we have " +
			"decided not to move forward with your application.\n\nBest regards,\nRecruiting Team",
		"duplicate": "",
		"error":     "",
	}
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Scoring: ScoringConfig{
			RedThreshold:   DefaultRedThreshold,
			GreenThreshold: DefaultGreenThreshold,
			BonusWeights:   map[string]float64{},
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			RequestTimeout: 60 * time.Second,
			TotalTimeout:   3 * time.Minute,
			MaxAttempts:    5,
			RetryDelay:     time.Second,
			MaxLogLength:   200,
			Gemini: GeminiConfig{
				Model:          "gemini-2.5-flash",
				FallbackModels: []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-2.5-pro", "gemini-1.5-pro"},
				Discover:       true,
			},
			OpenAI: OpenAIConfig{
				BaseURL:        "https://api.openai.com/v1",
				FallbackModels: []string{"gpt-4o", "gpt-3.5-turbo"},
			},
		},
		EmailTemplates: DefaultTemplates(),
		Batch: BatchConfig{
			Workers:    1,
			Extensions: []string{".pdf", ".docx", ".txt"},
		},
		Outbox: OutboxConfig{
			Dir:     "outbox",
			From:    "recruiting@example.com",
			Subject: "Your application",
		},
	}
}

// SetDefaults registers the built-in values on v so partial files and
// environment overrides merge with them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("scoring.red_threshold", d.Scoring.RedThreshold)
	v.SetDefault("scoring.green_threshold", d.Scoring.GreenThreshold)
	v.SetDefault("scoring.bonus_weights", d.Scoring.BonusWeights)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key_file", "")
	v.SetDefault("llm.request_timeout", d.LLM.RequestTimeout)
	v.SetDefault("llm.total_timeout", d.LLM.TotalTimeout)
	v.SetDefault("llm.max_attempts", d.LLM.MaxAttempts)
	v.SetDefault("llm.retry_delay", d.LLM.RetryDelay)
	v.SetDefault("llm.max_log_length", d.LLM.MaxLogLength)
	v.SetDefault("llm.gemini.model", d.LLM.Gemini.Model)
	v.SetDefault("llm.gemini.fallback_models", d.LLM.Gemini.FallbackModels)
	v.SetDefault("llm.gemini.discover", d.LLM.Gemini.Discover)
	v.SetDefault("llm.openai.base_url", d.LLM.OpenAI.BaseURL)
	v.SetDefault("llm.openai.fallback_models", d.LLM.OpenAI.FallbackModels)
	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("batch.extensions", d.Batch.Extensions)
	v.SetDefault("batch.max_pdf_pages", d.Batch.MaxPDFPages)
	v.SetDefault("outbox.dir", d.Outbox.Dir)
	v.SetDefault("outbox.from", d.Outbox.From)
	v.SetDefault("outbox.subject", d.Outbox.Subject)
}

// Load reads the configuration into v and decodes it. The returned config is
// never nil: recoverable problems are reported as ConfigurationError warnings
// and the affected values keep their defaults. An empty path searches name in
// the current directory.
func Load(v *viper.Viper, path, name string) (*Config, []error) {
	var warnings []error

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(name)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist), os.IsNotExist(err):
			warnings = append(warnings, &ConfigurationError{Err: fmt.Errorf("config file not found, using defaults: %w", err)})
		default:
			warnings = append(warnings, &ConfigurationError{Err: fmt.Errorf("config file unreadable, using defaults: %w", err)})
			return Defaults(), warnings
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		warnings = append(warnings, &ConfigurationError{Err: fmt.Errorf("decode config, using defaults: %w", err)})
		return Defaults(), warnings
	}

	warnings = append(warnings, cfg.Normalize()...)
	return cfg, warnings
}

// Normalize replaces invalid values with defaults and returns one warning per correction.
func (c *Config) Normalize() []error {
	var warnings []error
	d := Defaults()

	s := &c.Scoring
	if !inPercentRange(s.RedThreshold) || !inPercentRange(s.GreenThreshold) || s.RedThreshold > s.GreenThreshold {
		warnings = append(warnings, &ConfigurationError{
			Key: "scoring",
			Err: fmt.Errorf("thresholds red=%v green=%v are invalid, using %v/%v", s.RedThreshold, s.GreenThreshold, d.Scoring.RedThreshold, d.Scoring.GreenThreshold),
		})
		s.RedThreshold = d.Scoring.RedThreshold
		s.GreenThreshold = d.Scoring.GreenThreshold
	}
	if s.BonusWeights == nil {
		s.BonusWeights = map[string]float64{}
	}

	templates := DefaultTemplates()
	for key, tmpl := range c.EmailTemplates {
		lower := strings.ToLower(strings.TrimSpace(key))
		if _, known := templates[lower]; !known {
			warnings = append(warnings, &ConfigurationError{Key: "email_templates." + key, Err: errors.New("unknown status, ignored")})
			continue
		}
		templates[lower] = tmpl
	}
	c.EmailTemplates = templates

	if c.Batch.Workers < 1 {
		warnings = append(warnings, &ConfigurationError{Key: "batch.workers", Err: fmt.Errorf("%d is below 1, using 1", c.Batch.Workers)})
		c.Batch.Workers = 1
	}
	if len(c.Batch.Extensions) == 0 {
		c.Batch.Extensions = d.Batch.Extensions
	}
	for i, ext := range c.Batch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Batch.Extensions[i] = ext
	}

	l := &c.LLM
	if l.RequestTimeout <= 0 {
		l.RequestTimeout = d.LLM.RequestTimeout
	}
	if l.TotalTimeout <= 0 {
		l.TotalTimeout = d.LLM.TotalTimeout
	}
	if l.MaxAttempts < 1 {
		warnings = append(warnings, &ConfigurationError{Key: "llm.max_attempts", Err: fmt.Errorf("%d is below 1, using %d", l.MaxAttempts, d.LLM.MaxAttempts)})
		l.MaxAttempts = d.LLM.MaxAttempts
	}
	if l.RetryDelay < 0 {
		l.RetryDelay = 0
	}
	if l.MaxLogLength <= 0 {
		l.MaxLogLength = d.LLM.MaxLogLength
	}
	l.Provider = strings.ToLower(strings.TrimSpace(l.Provider))

	return warnings
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}
