package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	DatabaseURL   string `envconfig:"DATABASE_URL" default:"host=localhost user=postgres password=postgres dbname=prompthub port=5432 sslmode=disable"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"secret_key_change_me"`
	SiteURL       string `envconfig:"SITE_URL" default:"http://localhost:8080"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using system env vars")
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
