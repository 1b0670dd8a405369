package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dusk-indust/humanizer/internal/capability"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDetectorSpace    = "HUMANIZER_DETECTOR_SPACE"
	EnvHumanizerSpace   = "HUMANIZER_HUMANIZER_SPACE"
	EnvToken            = "HF_TOKEN"
	EnvTimeout          = "HUMANIZER_TIMEOUT"
	EnvBatchConcurrency = "HUMANIZER_BATCH_CONCURRENCY"
	EnvIntensity        = "HUMANIZER_INTENSITY"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
)

// Config holds settings loaded from humanizer.yml, .env and the environment.
type Config struct {
	DetectorSpace     string   `yaml:"detectorSpace" validate:"required"`
	DetectorFunctions []string `yaml:"detectorFunctions,omitempty" validate:"required,min=1,dive,required,startswith=/"`
	HumanizerSpace    string   `yaml:"humanizerSpace" validate:"required"`
	HumanizerFunction string   `yaml:"humanizerFunction" validate:"required,startswith=/"`

	// Token is read from HF_TOKEN only and never from the file.
	Token string `yaml:"-"`

	// Timeout bounds each remote call. Zero means no timeout.
	Timeout          Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	BatchConcurrency int           `yaml:"batchConcurrency,omitempty" validate:"gte=0"`
	Intensity        string        `yaml:"intensity,omitempty" validate:"oneof=light standard heavy"`
	CompareOriginal  bool          `yaml:"compareOriginal,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"oneof=trace debug info warn warning error off"`
	Format string `yaml:"format,omitempty" validate:"oneof=console json"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DetectorSpace:     capability.DefaultDetectorSpace,
		DetectorFunctions: append([]string(nil), capability.DefaultDetectorFunctions...),
		HumanizerSpace:    capability.DefaultHumanizerSpace,
		HumanizerFunction: capability.DefaultHumanizerFunction,
		BatchConcurrency:  4,
		Intensity:         "standard",
		Log:               LogConfig{Level: "warn", Format: "console"},
	}
}

// Load reads .env, then humanizer.yml or humanizer.yaml from dir, then
// applies environment overrides and validates the result. Missing files are
// not an error; the defaults apply. Variables already set in the process
// environment win over .env entries.
func Load(dir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	cfg := Defaults()
	for _, name := range []string{"humanizer.yml", "humanizer.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		break
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DetectorSpace, EnvDetectorSpace)
	setString(&cfg.HumanizerSpace, EnvHumanizerSpace)
	setString(&cfg.Token, EnvToken)
	setString(&cfg.Intensity, EnvIntensity)
	setString(&cfg.Log.Level, EnvLogLevel)
	setString(&cfg.Log.Format, EnvLogFormat)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if v := lookup(EnvTimeout); v != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = Duration(d)
	}
	if v := lookup(EnvBatchConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvBatchConcurrency, err)
		}
		cfg.BatchConcurrency = n
	}
	return nil
}

// ParseTimeout accepts a Go duration ("45s", "2m") or a bare number of
// seconds ("30").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// Duration is a time.Duration that decodes from YAML the same way
// HUMANIZER_TIMEOUT is parsed, so "30" and "30s" mean the same thing.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timeout must be a number of seconds or a duration", node.Line)
	}
	v, err := ParseTimeout(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: timeout: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := lookup(key); v != "" {
		*dst = v
	}
}

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translator, _ = uni.GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their file keys.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("yaml")
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}
