// Package config loads the ees configuration from the environment.
//
// Values come from the process environment, optionally completed by a .env
// file. Variables already set in the environment take precedence over the
// file.
//
//	EEURL        portal host, required
//	EEUSERNAME   portal username, required
//	EEPASSWORD   portal password, required
//	EEDATADIR    snapshot directory (default "data")
//	EESCHEMA     selector schema file (default: built-in selectors)
//	EESTRATEGY   "rotate" (default) or "overlay"
//	EEDETAIL     fetch holding detail pages (default false)
//	EELOGLEVEL   zerolog level (default "info")
//	EELANDING    anonymous page opening the session (default "/Account/SignIn")
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/portal"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the run configuration.
type Config struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DataDir  string `mapstructure:"data_dir"`
	Schema   string `mapstructure:"schema"`
	Strategy string `mapstructure:"strategy"`
	Detail   bool   `mapstructure:"detail"`
	LogLevel string `mapstructure:"log_level"`
	Landing  string `mapstructure:"landing"`
}

// env maps each configuration key to its environment variable.
var env = map[string]string{
	"url":       "EEURL",
	"username":  "EEUSERNAME",
	"password":  "EEPASSWORD",
	"data_dir":  "EEDATADIR",
	"schema":    "EESCHEMA",
	"strategy":  "EESTRATEGY",
	"detail":    "EEDETAIL",
	"log_level": "EELOGLEVEL",
	"landing":   "EELANDING",
}

// Load reads envFile (".env" if empty) into the environment, when it exists,
// and returns the configuration read from the environment.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}
	v.SetDefault("data_dir", "data")
	v.SetDefault("strategy", string(holdings.Rotate))
	v.SetDefault("detail", false)
	v.SetDefault("log_level", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values needed to reach the portal.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("EEURL is required")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("EEUSERNAME and EEPASSWORD are required: %w", portal.ErrMissingCredentials)
	}
	if c.Landing != "" && !strings.HasPrefix(c.Landing, "/") {
		return fmt.Errorf("EELANDING must be a path starting with /, got %q", c.Landing)
	}
	if _, err := c.ParseStrategy(); err != nil {
		return err
	}
	return nil
}

// Credentials returns the portal credentials.
func (c *Config) Credentials() portal.Credentials {
	return portal.Credentials{Username: c.Username, Password: c.Password}
}

// ParseStrategy returns the configured reconciliation strategy.
func (c *Config) ParseStrategy() (holdings.Strategy, error) {
	s, err := holdings.ParseStrategy(c.Strategy)
	if err != nil {
		return "", fmt.Errorf("invalid EESTRATEGY: %w", err)
	}
	return s, nil
}
