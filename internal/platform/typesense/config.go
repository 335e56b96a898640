package typesense

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingAPIKey     ConfigErrorCode = "missing_api_key"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid typesense config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "TYPESENSE_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf(
			"invalid TYPESENSE_URL=%q; expected absolute URL like http://typesense:8108",
			e.Value,
		)
	case ConfigErrorMissingAPIKey:
		return "TYPESENSE_API_KEY is required"
	case ConfigErrorMissingCollection:
		return "TYPESENSE_COLLECTION is required"
	default:
		return "invalid typesense config"
	}
}

func ConfigFromEnv() Config {
	return Config{
		URL:        strings.TrimSpace(os.Getenv("TYPESENSE_URL")),
		APIKey:     strings.TrimSpace(os.Getenv("TYPESENSE_API_KEY")),
		Collection: strings.TrimSpace(os.Getenv("TYPESENSE_COLLECTION")),
	}
}

func ValidateConfig(cfg Config) error {
	if cfg.URL == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL}
	}
	if cfg.APIKey == "" {
		return &ConfigError{Code: ConfigErrorMissingAPIKey}
	}
	if cfg.Collection == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	return nil
}
