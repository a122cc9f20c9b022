package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// Backend names accepted in DATA_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendSurreal  = "surreal"
)

type Config struct {
	Backend string `mapstructure:"DATA_BACKEND"`

	DB struct {
		Host     string `mapstructure:"POSTGRES_HOST"`
		Port     string `mapstructure:"POSTGRES_PORT"`
		User     string `mapstructure:"POSTGRES_USER"`
		Password string `mapstructure:"POSTGRES_PASSWORD"`
		Name     string `mapstructure:"POSTGRES_DB"`
	}

	SQLite struct {
		Path string `mapstructure:"SQLITE_PATH"`
	}

	Surreal struct {
		URL       string `mapstructure:"SURREAL_URL"`
		User      string `mapstructure:"SURREAL_USER"`
		Password  string `mapstructure:"SURREAL_PASSWORD"`
		Namespace string `mapstructure:"SURREAL_NAMESPACE"`
		Database  string `mapstructure:"SURREAL_DATABASE"`
	}
}

func loadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	switch config.Backend {
	case BackendPostgres, BackendSQLite, BackendSurreal:
	case "":
		config.Backend = BackendSQLite
	default:
		return nil, fmt.Errorf("unknown DATA_BACKEND %q", config.Backend)
	}

	return &config, nil
}
