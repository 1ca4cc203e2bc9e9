package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/eduassist/internal/flagx"
	"github.com/dmitrijs2005/eduassist/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Intervals use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	SessionValidity      timex.Duration `json:"session_validity"`
	VerificationValidity timex.Duration `json:"verification_validity"`
	VerificationURL      string         `json:"verification_url"`
	RememberFor          timex.Duration `json:"remember_for"`
	CompensationTimeout  timex.Duration `json:"compensation_timeout"`
	IdentityBackend      string         `json:"identity_backend"`
	ProfileBackend       string         `json:"profile_backend"`
	S3Region             string         `json:"s3_region"`
	S3Endpoint           string         `json:"s3_endpoint"`
	S3AccessKey          string         `json:"s3_access_key"`
	S3SecretKey          string         `json:"s3_secret_key"`
	S3Bucket             string         `json:"s3_bucket"`
	MongoURI             string         `json:"mongo_uri"`
	MongoDatabase        string         `json:"mongo_database"`
	LocalStatePath       string         `json:"local_state_path"`
	LogLevel             string         `json:"log_level"`
	OtelEndpoint         string         `json:"otel_endpoint"`
	MetricsAddr          string         `json:"metrics_addr"`
}

// parseJson overlays the values present in the JSON file named by -c or
// -config. Keys missing from the file leave the current value alone.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionValidity, c.SessionValidity)
	setDuration(&config.VerificationValidity, c.VerificationValidity)
	setString(&config.VerificationURL, c.VerificationURL)
	setDuration(&config.RememberFor, c.RememberFor)
	setDuration(&config.CompensationTimeout, c.CompensationTimeout)
	setString(&config.IdentityBackend, c.IdentityBackend)
	setString(&config.ProfileBackend, c.ProfileBackend)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3Endpoint, c.S3Endpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.LocalStatePath, c.LocalStatePath)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.OtelEndpoint, c.OtelEndpoint)
	setString(&config.MetricsAddr, c.MetricsAddr)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
