package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Report   ReportConfig   `mapstructure:"report"`
	Database DatabaseConfig `mapstructure:"database"`
	BargeIn  BargeInConfig  `mapstructure:"barge_in"`
	Intents  IntentsConfig  `mapstructure:"intents"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ReportConfig holds settings for report generation and the error dump
// side-channel.
type ReportConfig struct {
	// DumpDir is where fp.csv, fn.csv and mm.csv are written.
	DumpDir string `mapstructure:"dump_dir"`
	// DumpSinks enables optional sinks besides the flat files.
	DumpSinks DumpSinksConfig `mapstructure:"dump_sinks"`
}

type DumpSinksConfig struct {
	Postgres      bool `mapstructure:"postgres"`
	Elasticsearch bool `mapstructure:"elasticsearch"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// BargeInConfig holds tolerances and column names for the VAD barge-in
// report.
type BargeInConfig struct {
	Error  float64 `mapstructure:"error"`
	Cutoff float64 `mapstructure:"cutoff"`

	Columns struct {
		ID        string `mapstructure:"id"`
		Truth     string `mapstructure:"truth"`
		Predicted string `mapstructure:"predicted"`
	} `mapstructure:"columns"`
}

// IntentsConfig holds settings for intent report grouping.
type IntentsConfig struct {
	// GroupsPath points to a YAML file mapping alias name -> list of
	// intents belonging to that group.
	GroupsPath string `mapstructure:"groups_path"`
}
