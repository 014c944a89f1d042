// conf/utils.go
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetDefaultConfigPaths returns a list of default configuration search paths
// for the current operating system: on Windows the executable's directory
// and then the user's roaming backline directory, elsewhere
// ~/.config/backline and then /etc/backline. A default config file is
// created in the first entry.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "backline"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "backline"),
			"/etc/backline",
		}
	}

	return configPaths, nil
}

// GetBasePath expands environment variables in path and ensures the
// resulting directory exists, creating it if necessary.
func GetBasePath(path string) string {
	expanded := os.ExpandEnv(path)
	basePath := filepath.Clean(expanded)

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			log.Warn("failed to create directory", "path", basePath, "error", err)
		}
	}

	return basePath
}

// RunningInContainer reports whether the process is running inside a
// Docker or Podman container.
func RunningInContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return true
	}
	if v, ok := os.LookupEnv("container"); ok && v != "" {
		return true
	}
	return false
}
