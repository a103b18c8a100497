// Package config handles animation tool configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/midgard-anim/internal/engine/animation"
)

// Config holds all settings.
type Config struct {
	Animation AnimationConfig `yaml:"animation"`
	Play      PlayConfig      `yaml:"play"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AnimationConfig holds player playback settings.
type AnimationConfig struct {
	BlendDuration  float32 `yaml:"blend_duration"`  // seconds
	BlendThreshold float32 `yaml:"blend_threshold"` // rest pose fill-in weight
	Speed          float32 `yaml:"speed"`
	Looping        bool    `yaml:"looping"`
	TickRate       int     `yaml:"tick_rate"` // updates per second
}

// PlayConfig holds settings for offline playback runs.
type PlayConfig struct {
	Frames int    `yaml:"frames"`
	Clip   string `yaml:"clip"` // empty plays the default clip
}

// WatchConfig holds settings for rebuilding rigs on file change.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format"` // console or json
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Animation: AnimationConfig{
			BlendDuration:  0.25,
			BlendThreshold: 0.1,
			Speed:          1.0,
			Looping:        true,
			TickRate:       60,
		},
		Play: PlayConfig{
			Frames: 60,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Format:  "console",
		},
	}
}

// Settings converts the animation section into player settings.
func (a AnimationConfig) Settings() animation.Settings {
	return animation.Settings{
		BlendDuration:  a.BlendDuration,
		BlendThreshold: a.BlendThreshold,
		Speed:          a.Speed,
		Looping:        a.Looping,
	}
}

// TickInterval returns the simulated time between updates.
func (a AnimationConfig) TickInterval() float32 {
	if a.TickRate <= 0 {
		return 1.0 / 60
	}
	return 1 / float32(a.TickRate)
}
