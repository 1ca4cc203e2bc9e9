package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/eduassist/internal/flagx"
)

var knownFlags = []string{"-d", "-s", "-t", "-x", "-u", "-i", "-p", "-l", "-v", "-o", "-m"}

// parseFlags overlays values from command-line flags.
//
// Supported flags (short forms):
//
//	-d string     PostgreSQL DSN
//	-s string     session token secret
//	-t duration   session validity (e.g. "24h")
//	-x duration   registration compensation timeout
//	-u string     verification link base URL
//	-i string     identity backend (postgres|memory)
//	-p string     profile backend (postgres|mongo|s3|memory)
//	-l string     local state sqlite file
//	-v string     log level (debug|info|warn|error)
//	-o string     OTLP/HTTP trace endpoint
//	-m string     metrics listen address
//
// Args are filtered with flagx.FilterArgs first so the -c flag and anything
// meant for other parsers are ignored.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("eduassist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionValidity, "t", config.SessionValidity, "session validity")
	fs.DurationVar(&config.CompensationTimeout, "x", config.CompensationTimeout, "compensation timeout")
	fs.StringVar(&config.VerificationURL, "u", config.VerificationURL, "verification link base URL")
	fs.StringVar(&config.IdentityBackend, "i", config.IdentityBackend, "identity backend")
	fs.StringVar(&config.ProfileBackend, "p", config.ProfileBackend, "profile backend")
	fs.StringVar(&config.LocalStatePath, "l", config.LocalStatePath, "local state file")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.OtelEndpoint, "o", config.OtelEndpoint, "otlp endpoint")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
