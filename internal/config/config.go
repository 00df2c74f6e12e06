package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	port          string
	dBHost        string
	dBPassword    string
	dBUsername    string
	sentryDSN     string
	otlpEndpoint  string
	upstreamsPath string
	env           environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) DBHost() string {
	return c.dBHost
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) OTLPEndpoint() string {
	return c.otlpEndpoint
}

func (c *Config) UpstreamsPath() string {
	return c.upstreamsPath
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{env: %s, port: %s, upstreamsPath: %s, ...}", string(c.env), c.port, c.upstreamsPath)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("BEACON_ENVIRONMENT")
	if !ok {
		return missingKey("BEACON_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: BEACON_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbHost := os.Getenv("DB_HOST")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	otlpEndpoint := os.Getenv("OTLP_ENDPOINT")
	upstreamsPath := os.Getenv("BEACON_UPSTREAMS_FILE")

	if env == production || env == staging {
		if dbHost == "" {
			return missingKey("DB_HOST")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if upstreamsPath == "" {
			return missingKey("BEACON_UPSTREAMS_FILE")
		}
	}

	return Config{
		port:          port,
		dBHost:        dbHost,
		dBPassword:    dbPassword,
		dBUsername:    dbUsername,
		sentryDSN:     sentryDSN,
		otlpEndpoint:  otlpEndpoint,
		upstreamsPath: upstreamsPath,
		env:           env,
	}, nil
}
