// Package conf provides configuration management for the engine, following
// the same viper-backed singleton pattern as the rest of the stack.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the engine's full persisted configuration: ambient knobs
// (logging, HTTP, telemetry) plus the audio-facing settings read by
// get_audio_settings and changed by switch_audio_device, set_buffer_size and
// set_sample_rate (spec.md §3, §6.1).
type Settings struct {
	Debug bool

	Log struct {
		Level     string // slog level: debug, info, warn, error
		Format    string // "json" or "text"
		Directory string // directory log files are written under
	}

	Sentry struct {
		Enabled     bool
		DSN         string
		Environment string
	}

	HTTP struct {
		ListenAddress string // address the Control Plane's Echo server binds to
		MetricsPath   string // path the Prometheus handler is mounted on
	}

	Store struct {
		Path string // path to the SQLite metadata database file
	}

	Audio struct {
		PreferredOutputDevice string
		BufferSizeFrames      int
		SampleRateHz          int
		Theme                 string
		CacheByteBudget       int64 // 0 means "use the RAM-heuristic default"
	}

	Import struct {
		WatchDirectory string // optional directory auto-scanned for new stems
	}

	Workers struct {
		DecodePoolSize int // bounded parallelism cap for song loads (spec.md §5)
	}
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a fresh
// Settings instance, creating a default config file if none exists.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}
	if err := bindEnvVars(); err != nil {
		log.Warn("environment variable binding issues", "error", err)
	}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	settingsInstance = settings
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	log.Info("configuration loaded", "file", viper.ConfigFileUsed())
	return nil
}

func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Info("created default config file", "path", configPath)
	return viper.ReadInConfig()
}

func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Error("failed to read embedded default config", "error", err)
		return ""
	}
	return string(data)
}

// GetSettings returns the current settings instance, or nil if Load/Setting
// have never been called.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings persists the current in-memory settings to the config file.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	settingsMap, err := structToMap(settingsInstance)
	if err != nil {
		return fmt.Errorf("error converting settings to map: %w", err)
	}
	if err := viper.MergeConfigMap(settingsMap); err != nil {
		return fmt.Errorf("error merging settings with viper: %w", err)
	}
	return viper.WriteConfig()
}

// UpdateSettings validates newSettings, swaps them in atomically, and
// persists them (used by the Control Plane's switch_audio_device,
// set_buffer_size and set_sample_rate commands).
func UpdateSettings(newSettings *Settings) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := ValidateSettings(newSettings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	settingsInstance = newSettings

	settingsMap, err := structToMap(newSettings)
	if err != nil {
		return fmt.Errorf("error converting settings to map: %w", err)
	}
	if err := viper.MergeConfigMap(settingsMap); err != nil {
		return fmt.Errorf("error merging settings with viper: %w", err)
	}
	return viper.WriteConfig()
}

// Setting returns the process-wide settings instance, loading it from disk
// on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Error("failed to load settings", "error", err)
			}
		}
	})
	return GetSettings()
}
