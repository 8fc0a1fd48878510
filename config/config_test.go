package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/holdings"
	"github.com/etnz/holdings/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every configuration variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range env {
		t.Setenv(name, "") // restores the original value on cleanup
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		DataDir:  "data",
		Strategy: "rotate",
		LogLevel: "info",
	}, cfg)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("EEURL", "platform.example.com")
	t.Setenv("EEUSERNAME", "jane")
	t.Setenv("EEPASSWORD", "secret")
	t.Setenv("EEDATADIR", "/var/lib/ees")
	t.Setenv("EESCHEMA", "selectors.yaml")
	t.Setenv("EESTRATEGY", "overlay")
	t.Setenv("EEDETAIL", "true")
	t.Setenv("EELOGLEVEL", "debug")
	t.Setenv("EELANDING", "/")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		URL:      "platform.example.com",
		Username: "jane",
		Password: "secret",
		DataDir:  "/var/lib/ees",
		Schema:   "selectors.yaml",
		Strategy: "overlay",
		Detail:   true,
		LogLevel: "debug",
		Landing:  "/",
	}, cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, portal.Credentials{Username: "jane", Password: "secret"}, cfg.Credentials())
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("EEUSERNAME", "from-env")

	file := filepath.Join(t.TempDir(), ".env")
	content := "EEURL=platform.example.com\nEEUSERNAME=from-file\nEEPASSWORD=\"s3cr#t\"\nEEDATADIR=snapshots\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "platform.example.com", cfg.URL)
	assert.Equal(t, "from-env", cfg.Username, "the environment wins over the file")
	assert.Equal(t, "s3cr#t", cfg.Password)
	assert.Equal(t, "snapshots", cfg.DataDir)
}

func TestValidate(t *testing.T) {
	valid := Config{URL: "h", Username: "u", Password: "p", Strategy: "rotate"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(*Config)
		is     error
	}{
		{name: "no url", modify: func(c *Config) { c.URL = "" }},
		{name: "no username", modify: func(c *Config) { c.Username = "" }, is: portal.ErrMissingCredentials},
		{name: "no password", modify: func(c *Config) { c.Password = "" }, is: portal.ErrMissingCredentials},
		{name: "bad strategy", modify: func(c *Config) { c.Strategy = "shuffle" }},
		{name: "relative landing", modify: func(c *Config) { c.Landing = "Account/SignIn" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.modify(&c)
			err := c.Validate()
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	c := Config{}
	s, err := c.ParseStrategy()
	require.NoError(t, err)
	assert.Equal(t, holdings.Rotate, s)
}
