package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/mixtape/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultBaseURL      = "http://localhost:8000"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the mixtape service will be run
	ListenAddr string

	// Public URL the service is reachable on, used in share links
	BaseURL string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Used to sign session cookie values with symmetric encryption
	SecretKey string

	// Spotify application credentials
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURL  string

	// Mail provider settings, mail is skipped when empty
	MailAPIKey    string
	MailFromEmail string
	MailFromName  string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		BaseURL:     defaultBaseURL,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":           setString(&c.ListenAddr),
		"BASE_URL":              setString(&c.BaseURL),
		"DATABASE_URI":          setString(&c.DatabaseDSN),
		"SECRET_KEY":            setString(&c.SecretKey),
		"LOG_LEVEL":             setString(&c.LogLevel),
		"SPOTIFY_CLIENT_ID":     setString(&c.SpotifyClientID),
		"SPOTIFY_CLIENT_SECRET": setString(&c.SpotifyClientSecret),
		"SPOTIFY_REDIRECT_URI":  setString(&c.SpotifyRedirectURL),
		"MAIL_API_KEY":          setString(&c.MailAPIKey),
		"MAIL_FROM_EMAIL":       setString(&c.MailFromEmail),
		"MAIL_FROM_NAME":        setString(&c.MailFromName),
		"ENVIRONMENT":           setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("mixtape", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.BaseURL, "base-url", "b", c.BaseURL, "Public base URL")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
