// Package config handles configuration loading and management.
package config

import "strings"

// Supported games.
const (
	GameLBA1 = "lba1"
	GameLBA2 = "lba2"
)

// Config holds all settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Scene   SceneConfig   `yaml:"scene"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds game data file paths.
type DataConfig struct {
	Dirs        []string `yaml:"dirs"`         // Data directories, later ones take priority
	GridPattern string   `yaml:"grid_pattern"` // Grid file name for a scene index
	Layouts     string   `yaml:"layouts"`      // Layout library file
	Overrides   string   `yaml:"overrides"`    // Editor overrides file, optional
	CacheAssets bool     `yaml:"cache_assets"`
}

// SceneConfig holds scene and physics settings.
type SceneConfig struct {
	Game       string `yaml:"game"`        // lba1 or lba2
	DomeScenes []int  `yaml:"dome_scenes"` // Scenes where water drowns into stars
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`  // Rotate the log file past this size
	MaxBackups int    `yaml:"max_backups"`  // Rotated files kept
	MaxAgeDays int    `yaml:"max_age_days"` // Rotated files older than this are removed
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dirs:        []string{"data"},
			GridPattern: "grids/grid_%03d.gr2",
			Layouts:     "layouts.yaml",
			Overrides:   "",
			CacheAssets: true,
		},
		Scene: SceneConfig{
			Game:       GameLBA2,
			DomeScenes: []int{26, 202},
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// IsLegacy reports whether the first game's rules apply.
func (s SceneConfig) IsLegacy() bool {
	return strings.EqualFold(s.Game, GameLBA1)
}

// IsDome reports whether scene is one of the dome scenes.
func (s SceneConfig) IsDome(scene int) bool {
	for _, dome := range s.DomeScenes {
		if dome == scene {
			return true
		}
	}
	return false
}
