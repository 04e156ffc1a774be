package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"conveval/internal/common/errors"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Enable ENV override like CONVEVAL_REPORT_DUMP_DIR
	viper.SetEnvPrefix("conveval")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "conveval"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Report.DumpDir == "" {
		cfg.Report.DumpDir = "."
	}
	if cfg.BargeIn.Error == 0 {
		cfg.BargeIn.Error = 0.1
	}
	if cfg.BargeIn.Cutoff == 0 {
		cfg.BargeIn.Cutoff = 0.2
	}
	if cfg.BargeIn.Columns.ID == "" {
		cfg.BargeIn.Columns.ID = "id"
	}
	if cfg.BargeIn.Columns.Truth == "" {
		cfg.BargeIn.Columns.Truth = "tag"
	}
	if cfg.BargeIn.Columns.Predicted == "" {
		cfg.BargeIn.Columns.Predicted = "prediction"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "conveval-errors"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Report.DumpSinks.Postgres && cfg.Database.Postgres.Host == "" {
		return errors.NewConfigInvalidError("postgres dump sink enabled but database.postgres.host is empty")
	}
	if cfg.Report.DumpSinks.Elasticsearch && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return errors.NewConfigInvalidError("elasticsearch dump sink enabled but database.elasticsearch.addresses is empty")
	}
	if cfg.BargeIn.Error < 0 || cfg.BargeIn.Cutoff < 0 {
		return errors.NewConfigInvalidError("barge_in tolerances must be non-negative")
	}
	return nil
}
