package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings represents the structure of $PULLPO_HOME/settings.json. Pointer
// fields distinguish "unset" from zero values so CLI flags and env vars keep
// precedence over the file.
type Settings struct {
	BatchSize    *int   `json:"batch_size,omitempty"`
	DatabasePath string `json:"database_path,omitempty"`
	Debug        *bool  `json:"debug,omitempty"`
	MaxLogFiles  *int   `json:"max_log_files,omitempty"`
	Token        string `json:"token,omitempty"`
}

// GetPullpoHome returns PULLPO_HOME or ~/.pullpo default
func GetPullpoHome() string {
	pullpoHome := os.Getenv("PULLPO_HOME")
	if pullpoHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".pullpo"
		}
		return filepath.Join(homeDir, ".pullpo")
	}
	return ExpandPath(pullpoHome)
}

// GetDBPath returns $PULLPO_HOME/pullpo.db
func GetDBPath() string {
	return filepath.Join(GetPullpoHome(), "pullpo.db")
}

// GetSettingsPath returns $PULLPO_HOME/settings.json
func GetSettingsPath() string {
	return filepath.Join(GetPullpoHome(), "settings.json")
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}

// LoadSettings loads settings from $PULLPO_HOME/settings.json.
// Returns empty Settings if the file doesn't exist (not an error).
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	if settings.DatabasePath != "" {
		settings.DatabasePath = ExpandPath(settings.DatabasePath)
	}

	return &settings, nil
}
