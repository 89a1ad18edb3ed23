package app

import (
	"fmt"
	"os"
	"path/filepath"

	"vsnap-go/internal/config"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - VSNAP_CONFIG_PATH: config file location (default: ~/.config/vsnap.toml)
//   - VSNAP_HOME: base directory for vsnap data (default: ~/.local/share/vsnap)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("VSNAP_CONFIG_PATH"); path != "" {
		return path, nil
	}
	return homeRelative(".config", "vsnap.toml")
}

func getBaseDir() (string, error) {
	if path := os.Getenv("VSNAP_HOME"); path != "" {
		return path, nil
	}
	return homeRelative(".local", "share", "vsnap")
}

func homeRelative(elem ...string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}

// LoadConfig reads the config file named by the defaults. A missing file is
// not an error: the defaults are used, with the machine's hostname as host ID.
func LoadConfig() (*config.Config, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	hostID, err := os.Hostname()
	if err != nil || hostID == "" {
		hostID = "localhost"
	}

	cfg, err := config.Load(defaults["config_path"], config.NewConfig(hostID, defaults["base_dir"]))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}
