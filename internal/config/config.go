package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ironsheep/labelscan/internal/offacts"
	"github.com/ironsheep/labelscan/internal/scoring"
)

// EnvPrefix prefixes every environment override, e.g. LABELSCAN_DB_PATH or
// LABELSCAN_OCR_LANGUAGE.
const EnvPrefix = "LABELSCAN"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// OCR configures the Tesseract engine.
type OCR struct {
	Language       string `mapstructure:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix"`
}

// Scoring selects the default Nutri-Score policy.
type Scoring struct {
	Policy string `mapstructure:"policy"`
}

// OFFacts configures the product lookup client.
type OFFacts struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// HTTP configures the JSON API.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// Session bounds how many extraction sessions stay in memory.
type Session struct {
	TTL     time.Duration `mapstructure:"ttl"`
	MaxLive int           `mapstructure:"max_live"`
}

// Config is the complete service configuration.
type Config struct {
	LogLevel string  `mapstructure:"log_level"`
	DebugDir string  `mapstructure:"debug_dir"`
	DBPath   string  `mapstructure:"db_path"`
	HTTP     HTTP    `mapstructure:"http"`
	OCR      OCR     `mapstructure:"ocr"`
	Scoring  Scoring `mapstructure:"scoring"`
	OFFacts  OFFacts `mapstructure:"offacts"`
	Session  Session `mapstructure:"session"`
}

// Debug reports whether verbose logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

func setDefaults(v *viper.Viper, version string) {
	v.SetDefault("log_level", "info")
	v.SetDefault("debug_dir", "")
	v.SetDefault("db_path", "labelscan.db")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.tessdata_prefix", "")
	v.SetDefault("scoring.policy", scoring.DefaultPolicyName)
	v.SetDefault("offacts.base_url", offacts.DefaultBaseURL)
	v.SetDefault("offacts.timeout", offacts.DefaultTimeout)
	v.SetDefault("offacts.user_agent", "labelscan/"+version)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.max_live", 100)
}

// Load reads configuration from defaults, an optional YAML file and
// LABELSCAN_ environment variables, in increasing order of precedence.
//
// With an empty path, labelscan.yaml is looked up in the working directory
// and its absence is not an error. An explicit path must exist.
func Load(path, version string) (*Config, error) {
	v := viper.New()
	setDefaults(v, version)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("labelscan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info":
	default:
		return fmt.Errorf("%w: log_level must be debug or info, got %q", ErrInvalid, c.LogLevel)
	}
	if _, err := scoring.PolicyByName(c.Scoring.Policy); err != nil {
		return fmt.Errorf("%w: scoring.policy: %v", ErrInvalid, err)
	}
	if c.OFFacts.Timeout <= 0 {
		return fmt.Errorf("%w: offacts.timeout must be positive", ErrInvalid)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr is empty", ErrInvalid)
	}
	if c.Session.TTL < 0 || c.Session.MaxLive < 0 {
		return fmt.Errorf("%w: session.ttl and session.max_live must not be negative", ErrInvalid)
	}
	return nil
}
