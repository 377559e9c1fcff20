// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the client and the dev server.
type Options struct {
	// BaseURL is the backend API base URL used by the client.
	BaseURL string

	// CredentialsFile is the path where the client persists its
	// access credential across restarts.
	CredentialsFile string

	// Addr defines the dev server's listening address (ip:port).
	Addr string

	// JWTSecret signs the dev server's access tokens.
	JWTSecret string

	// Timeout bounds each outbound client request, as a duration string.
	Timeout string

	// TokenTTL is the dev server's access-token lifetime, as a duration
	// string.
	TokenTTL string

	// LogLevel sets the logging verbosity ("debug", "info", ...).
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.BaseURL, "url", "http://localhost:3000/api", "backend API base URL")
	flag.StringVar(&options.CredentialsFile, "creds", "credentials.json", "path to the credential file")
	flag.StringVar(&options.Addr, "a", "localhost:3000", "run dev server on ip:port")
	flag.StringVar(&options.JWTSecret, "secret", "dev-secret", "dev server JWT signing secret")
	flag.StringVar(&options.Timeout, "timeout", "10s", "outbound request timeout")
	flag.StringVar(&options.TokenTTL, "ttl", "15m", "dev server access-token lifetime")
	flag.StringVar(&options.LogLevel, "log", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}
	if credsFile := os.Getenv("CREDENTIALS_FILE"); credsFile != "" {
		options.CredentialsFile = credsFile
	}
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		options.Addr = addr
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		options.JWTSecret = secret
	}
	if timeout := os.Getenv("REQUEST_TIMEOUT"); timeout != "" {
		options.Timeout = timeout
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		options.TokenTTL = ttl
	}

	return options
}
