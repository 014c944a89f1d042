// env.go - environment variable bindings for the engine's settings.
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for one environment-variable-to-config-key
// binding, with an optional validator run when the variable is set.
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "BACKLINE_DEBUG", nil},

		{"log.level", "BACKLINE_LOG_LEVEL", validateEnvLogLevel},
		{"log.format", "BACKLINE_LOG_FORMAT", validateEnvLogFormat},
		{"log.directory", "BACKLINE_LOG_DIR", nil},

		{"sentry.enabled", "BACKLINE_SENTRY_ENABLED", nil},
		{"sentry.dsn", "BACKLINE_SENTRY_DSN", nil},
		{"sentry.environment", "BACKLINE_SENTRY_ENVIRONMENT", nil},

		{"http.listenaddress", "BACKLINE_HTTP_LISTEN", nil},
		{"http.metricspath", "BACKLINE_HTTP_METRICS_PATH", nil},

		{"store.path", "BACKLINE_DB_PATH", nil},

		{"audio.preferredoutputdevice", "BACKLINE_AUDIO_DEVICE", nil},
		{"audio.buffersizeframes", "BACKLINE_AUDIO_BUFFER_FRAMES", validateEnvPositiveInt},
		{"audio.sampleratehz", "BACKLINE_AUDIO_SAMPLE_RATE", validateEnvPositiveInt},
		{"audio.cachebytebudget", "BACKLINE_CACHE_BUDGET_BYTES", validateEnvPositiveInt},

		{"import.watchdirectory", "BACKLINE_IMPORT_WATCH_DIR", validateEnvPath},

		{"workers.decodepoolsize", "BACKLINE_DECODE_POOL_SIZE", validateEnvPositiveInt},
	}
}

func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if binding.Validate != nil {
			if v := os.Getenv(binding.EnvVar); v != "" {
				if err := binding.Validate(v); err != nil {
					warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, v, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvLogLevel(v string) error {
	switch v {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("must be one of debug, info, warn, error")
}

func validateEnvLogFormat(v string) error {
	switch v {
	case "json", "text":
		return nil
	}
	return fmt.Errorf("must be one of json, text")
}

func validateEnvPositiveInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not an integer: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateEnvPath(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("must not be blank")
	}
	return nil
}
