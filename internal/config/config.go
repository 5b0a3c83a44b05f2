package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"simeval/domain/report"
	"simeval/internal/errors"
	"simeval/internal/evaluation"
	"simeval/internal/logging"
)

// Config represents the complete application configuration
type Config struct {
	Evaluation EvaluationConfig
	Data       DataConfig
	Database   DatabaseConfig
	Server     ServerConfig
	Logging    LoggingConfig
}

// EvaluationConfig holds engine settings
type EvaluationConfig struct {
	Timing  report.TimingMode
	Failure evaluation.FailurePolicy
	Workers int
}

// DataConfig holds event files and data source settings
type DataConfig struct {
	GroundTruthFile   string
	SimulationFile    string
	OutputFile        string
	CommunitiesFile   string
	UserLocationsFile string
	RegistryFile      string
	InterestedUsers   []string
	InterestedRepos   []string
	TETopN            int
}

// DatabaseConfig holds the optional report store connection
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a report store is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
	// DataDir roots the event file paths named in API requests.
	DataDir string
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	evalConfig, err := loadEvaluationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load evaluation configuration")
	}
	config.Evaluation = *evalConfig

	config.Data = *loadDataConfig()
	config.Database = DatabaseConfig{URL: os.Getenv("DATABASE_URL")}
	config.Server = ServerConfig{
		Port:    getEnvOrDefault("API_PORT", "8080"),
		DataDir: getEnvOrDefault("DATA_DIR", "."),
	}

	logConfig, err := loadLoggingConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load logging configuration")
	}
	config.Logging = *logConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadEvaluationConfig() (*EvaluationConfig, error) {
	timing, err := report.ParseTimingMode(os.Getenv("TIMING_MODE"))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	failure, err := evaluation.ParseFailurePolicy(os.Getenv("FAILURE_POLICY"))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	return &EvaluationConfig{
		Timing:  timing,
		Failure: failure,
		Workers: getEnvIntOrDefault("WORKERS", 1),
	}, nil
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		GroundTruthFile:   getEnvOrDefault("GROUND_TRUTH_FILE", ""),
		SimulationFile:    getEnvOrDefault("SIMULATION_FILE", ""),
		OutputFile:        getEnvOrDefault("OUTPUT_FILE", "eval_output.json"),
		CommunitiesFile:   getEnvOrDefault("COMMUNITIES_FILE", ""),
		UserLocationsFile: getEnvOrDefault("USER_LOCATIONS_FILE", ""),
		RegistryFile:      getEnvOrDefault("REGISTRY_FILE", ""),
		InterestedUsers:   getEnvListOrDefault("INTERESTED_USERS", nil),
		InterestedRepos:   getEnvListOrDefault("INTERESTED_REPOS", nil),
		TETopN:            getEnvIntOrDefault("TE_TOP_N", 10),
	}
}

func loadLoggingConfig() (*LoggingConfig, error) {
	level, err := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	return &LoggingConfig{
		Level:  level,
		Format: getEnvOrDefault("LOG_FORMAT", "text"),
	}, nil
}

func validateConfig(config *Config) error {
	if config.Evaluation.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	if config.Data.TETopN < 1 {
		return errors.ConfigInvalid("TE_TOP_N must be at least 1")
	}
	if config.Data.OutputFile == "" {
		return errors.ConfigInvalid("output file is required")
	}
	if config.Logging.Format != "text" && config.Logging.Format != "json" {
		return errors.ConfigInvalid("LOG_FORMAT must be text or json")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
