package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultBaseCaseID identifies the promise-chaining assignment on the scoring service.
const DefaultBaseCaseID = "d805050e-a0d8-49b0-afbd-46a486105170"

// Output file names written by the reporters.
const (
	FunctionalOutputFile = "output_revised.txt"
	BoundaryOutputFile   = "output_boundary_revised.txt"
	ExceptionOutputFile  = "output_exception_revised.txt"
	XMLReportFile        = "test-report.xml"
)

// Config holds runtime configuration values for the grader.
type Config struct {
	AppName            string `validate:"required"`
	AppEnv             string `validate:"required"`
	AppPort            string `validate:"required"`
	LogLevel           string `validate:"required,oneof=trace debug info warn error fatal panic disabled"`
	SubmissionPath     string `validate:"required"`
	CustomDataPath     string `validate:"required"`
	OutputDir          string `validate:"required"`
	BaseCaseID         string `validate:"required"`
	RuleOverridesPath  string
	RemoteEndpoint     string        `validate:"omitempty,url"`
	RemoteTimeout      time.Duration `validate:"gt=0"`
	RemoteDrainTimeout time.Duration `validate:"gte=0"`
	HistoryDSN         string
	EventsRedisURL     string
	EventsNATSURL      string
	EventsChannel      string
	JWTSecret          string
	RateLimitPerMinute int `validate:"gte=0"`
}

// HTTPAddress returns the address the grading API should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// OutputPath resolves an output file name inside the output directory.
func (c Config) OutputPath(name string) string {
	return filepath.Join(c.OutputDir, name)
}

// ArtifactPaths lists every file the reporters write, in reset order.
func (c Config) ArtifactPaths() []string {
	return []string{
		c.OutputPath(FunctionalOutputFile),
		c.OutputPath(BoundaryOutputFile),
		c.OutputPath(ExceptionOutputFile),
		c.OutputPath(XMLReportFile),
	}
}

// Level parses the configured log level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADER")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Grader")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("submission_path", filepath.Join("..", "index.js"))
	v.SetDefault("custom_data_path", filepath.Join("..", "custom.ih"))
	v.SetDefault("output_dir", ".")
	v.SetDefault("base_case_id", DefaultBaseCaseID)
	v.SetDefault("remote.endpoint", "https://compiler.techademy.com/v1/mfa-results/push")
	v.SetDefault("remote.timeout", "10s")
	v.SetDefault("remote.drain_timeout", "15s")
	v.SetDefault("events.channel", "grader:verdicts")
	v.SetDefault("server.rate_limit", 60)

	remoteTimeout, err := parseDuration(v, "remote.timeout")
	if err != nil {
		return Config{}, err
	}

	drainTimeout, err := parseDuration(v, "remote.drain_timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		LogLevel:           strings.ToLower(v.GetString("log.level")),
		SubmissionPath:     v.GetString("submission_path"),
		CustomDataPath:     v.GetString("custom_data_path"),
		OutputDir:          v.GetString("output_dir"),
		BaseCaseID:         strings.TrimSpace(v.GetString("base_case_id")),
		RuleOverridesPath:  v.GetString("rules.overrides_path"),
		RemoteEndpoint:     strings.TrimSpace(v.GetString("remote.endpoint")),
		RemoteTimeout:      remoteTimeout,
		RemoteDrainTimeout: drainTimeout,
		HistoryDSN:         v.GetString("history.dsn"),
		EventsRedisURL:     v.GetString("events.redis_url"),
		EventsNATSURL:      v.GetString("events.nats_url"),
		EventsChannel:      v.GetString("events.channel"),
		JWTSecret:          v.GetString("server.jwt_secret"),
		RateLimitPerMinute: v.GetInt("server.rate_limit"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for missing or malformed values.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}
