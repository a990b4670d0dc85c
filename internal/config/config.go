// Package config loads runtime configuration from a .env file (if present)
// and environment variables. Missing required settings fail at startup, never
// per request.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/upcastmedia/vodpipe/internal/apperr"
	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Addr     string
	CertFile string
	KeyFile  string
	LogLevel string

	Env mediakey.Environment

	AWSRegion   string
	InputBucket string

	CloudFrontDomain         string
	CloudFrontKeyPairID      string
	CloudFrontPrivateKeyFile string

	MediaConvertEndpoint string
	MediaConvertRole     string

	// UploadTable is optional; when empty the advisory record store is off.
	UploadTable string

	RequestTimeout     time.Duration
	PartURLConcurrency int
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	appEnv, err := mediakey.ParseEnvironment(env("APP_ENV", "development"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:                     env("ADDR", ":4443"),
		CertFile:                 os.Getenv("CERT_FILE"),
		KeyFile:                  os.Getenv("CERT_KEY"),
		LogLevel:                 env("LOG_LEVEL", "info"),
		Env:                      appEnv,
		AWSRegion:                os.Getenv("AWS_REGION"),
		InputBucket:              os.Getenv("AWS_S3_VOD_BUCKET"),
		CloudFrontDomain:         os.Getenv("AWS_CF_VOD_DOMAIN"),
		CloudFrontKeyPairID:      os.Getenv("AWS_CF_KEY_PAIR_ID"),
		CloudFrontPrivateKeyFile: os.Getenv("AWS_CF_PRIVATE_KEY_FILE"),
		MediaConvertEndpoint:     os.Getenv("AWS_VOD_MEDIACONVERT_URL"),
		MediaConvertRole:         os.Getenv("AWS_VOD_ROLE_ARN"),
		UploadTable:              os.Getenv("AWS_DB_VOD_NAME"),
	}

	required := []struct {
		name  string
		value string
	}{
		{"AWS_REGION", cfg.AWSRegion},
		{"AWS_S3_VOD_BUCKET", cfg.InputBucket},
		{"AWS_CF_VOD_DOMAIN", cfg.CloudFrontDomain},
		{"AWS_CF_KEY_PAIR_ID", cfg.CloudFrontKeyPairID},
		{"AWS_CF_PRIVATE_KEY_FILE", cfg.CloudFrontPrivateKeyFile},
		{"AWS_VOD_MEDIACONVERT_URL", cfg.MediaConvertEndpoint},
		{"AWS_VOD_ROLE_ARN", cfg.MediaConvertRole},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, apperr.Newf(apperr.Configuration, "%s must be set", r.name)
		}
	}

	if cfg.RequestTimeout, err = time.ParseDuration(env("REQUEST_TIMEOUT", "10s")); err != nil {
		return nil, apperr.Wrap(apperr.Configuration, "cannot parse REQUEST_TIMEOUT", err)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, apperr.New(apperr.Configuration, "REQUEST_TIMEOUT must be positive")
	}
	if cfg.PartURLConcurrency, err = strconv.Atoi(env("PART_URL_CONCURRENCY", "8")); err != nil {
		return nil, apperr.Wrap(apperr.Configuration, "cannot parse PART_URL_CONCURRENCY", err)
	}
	if cfg.PartURLConcurrency < 1 {
		return nil, apperr.New(apperr.Configuration, "PART_URL_CONCURRENCY must be at least 1")
	}

	return cfg, nil
}

// Get the value of an environment variable, or a default when unset.
func env(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
