package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	authclient "github.com/goliatone/go-auth-client"
)

// Config is the CLI configuration loaded from a TOML file.
type Config struct {
	Server ServerConfig `toml:"server"`
	Routes RoutesConfig `toml:"routes"`
	Client ClientConfig `toml:"client"`
}

// ServerConfig points at the authentication backend.
type ServerConfig struct {
	BaseURL       string `toml:"base_url"`
	LoginPath     string `toml:"login_path"`
	LogoutPath    string `toml:"logout_path"`
	VerifyPath    string `toml:"verify_path"`
	VerifyTimeout string `toml:"verify_timeout"`
}

// RoutesConfig names the application routes the guard redirects between.
type RoutesConfig struct {
	Login   string `toml:"login"`
	Home    string `toml:"home"`
	Landing string `toml:"landing"`
}

// ClientConfig controls local behavior.
type ClientConfig struct {
	CredentialFile string `toml:"credential_file"`
	Debug          bool   `toml:"debug"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config targeting a local backend.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:4000/api",
		},
		Client: ClientConfig{
			CredentialFile: defaultCredentialFile(),
		},
	}
}

func defaultCredentialFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "credential.json"
	}
	return filepath.Join(dir, "authc", "credential.json")
}

// Options maps the file configuration onto the session client's Config.
func (c *Config) Options() authclient.Options {
	opts := authclient.Options{
		BaseURL:      c.Server.BaseURL,
		LoginPath:    c.Server.LoginPath,
		LogoutPath:   c.Server.LogoutPath,
		VerifyPath:   c.Server.VerifyPath,
		LoginRoute:   c.Routes.Login,
		HomeRoute:    c.Routes.Home,
		LandingRoute: c.Routes.Landing,
	}

	if c.Server.VerifyTimeout != "" {
		if d, err := time.ParseDuration(c.Server.VerifyTimeout); err == nil {
			opts.VerifyTimeout = d
		}
	}

	return opts
}
