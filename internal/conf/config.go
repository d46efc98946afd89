// config.go: This file contains the configuration for the voice note
// application. It defines the settings struct and functions to load and save
// the settings.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig contains settings for file logging and rotation.
type LogConfig struct {
	Enabled     bool   // true to enable file logging
	Path        string // path to log file
	Rotation    string // rotation type: daily, weekly or size
	MaxSize     int64  // max size in bytes for size rotation
	RotationDay string // day of the week for weekly rotation
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // name of this node, used in log records
	Log  LogConfig // main log settings
}

// AudioSettings contains settings for audio capture and clip export.
type AudioSettings struct {
	Source      string // audio capture device to use, empty for system default
	HighQuality bool   // true selects the high quality capture preset
	Export      struct {
		Path string // directory for recorded clips on platforms with durable paths
	}
	// EmbedPayload stores recorded audio inside the note record instead of a
	// file path. Used where the clip directory is not durable.
	EmbedPayload bool
}

// StorageSettings contains settings for the durable note collection.
type StorageSettings struct {
	SQLite struct {
		Enabled bool   // true to enable SQLite storage
		Path    string // path to SQLite database file
	}
}

// AccountSettings contains settings for the local identity provider.
type AccountSettings struct {
	SessionPath string // path to the persisted session file
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool // true to enable debug output

	Main    MainSettings
	Audio   AudioSettings
	Storage StorageSettings
	Account AccountSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Setting returns the global settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		settingsMutex.Lock()
		defer settingsMutex.Unlock()
		settingsInstance = &Settings{}
		if err := Load(settingsInstance); err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}
	})
	return settingsInstance
}

// Load reads the configuration into the provided settings struct, creating a
// default config file if none exists.
func Load(settings *Settings) error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting config paths: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
		// First run, write defaults to the primary config path
		configPath := filepath.Join(configPaths[0], "config.yaml")
		if err := createDefaultConfig(configPath); err != nil {
			return err
		}
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading newly created config file: %w", err)
		}
	}

	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	return nil
}

// Save writes the current settings to the config file as YAML.
func Save(settings *Settings) error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes a config file populated from viper defaults.
func createDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("error marshaling default settings: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at: %s", configPath)
	return nil
}

// GetDefaultConfigPaths returns the list of directories searched for the
// config file, most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		filepath.Join(homeDir, ".config", "voicenote"),
		".",
	}, nil
}

// GetBasePath expands the given directory relative to the config directory,
// creating it if needed, and returns the absolute path.
func GetBasePath(dir string) string {
	if filepath.IsAbs(dir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("Error creating directory %s: %v", dir, err)
		}
		return dir
	}

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return dir
	}

	basePath := filepath.Join(configPaths[0], dir)
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		log.Printf("Error creating directory %s: %v", basePath, err)
	}
	return basePath
}
