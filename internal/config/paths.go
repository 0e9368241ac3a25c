package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	userConfigDir  = ".config"
	configFileName = "config.yaml"
)

// Paths locates the two files a configuration is built from.
type Paths struct {
	// Default is the shipped template.
	Default string
	// Config is the user-editable active configuration.
	Config string
}

// Validate checks that both paths are set and distinct.
func (p Paths) Validate() error {
	if p.Default == "" {
		return errors.New("default template path cannot be empty")
	}
	if p.Config == "" {
		return errors.New("config path cannot be empty")
	}
	if filepath.Clean(p.Default) == filepath.Clean(p.Config) {
		return fmt.Errorf("default template and config must be different files, both are %s", p.Config)
	}
	return nil
}

// UserConfigPath returns ~/.config/<app>/config.yaml.
func UserConfigPath(app string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir, app, configFileName), nil
}
