package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Playback  PlaybackConfig  `toml:"playback"`
	VoiceHold VoiceHoldConfig `toml:"voice_hold"`
	Placement PlacementConfig `toml:"placement"`
	Render    RenderConfig    `toml:"render"`
	Assets    AssetsConfig    `toml:"assets"`
	Script    ScriptConfig    `toml:"script"`
	Locale    LocaleConfig    `toml:"locale"`
	Audio     AudioConfig     `toml:"audio"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
}

type PlaybackConfig struct {
	FrameRate        int           `toml:"frame_rate"`          // frames per second driven by the ticker
	TextSpeed        float64       `toml:"text_speed"`          // revealed characters per second
	AutoModeMinWait  float64       `toml:"auto_mode_min_wait"`  // seconds, floor while a voice line is active
	AutoModeMojiWait float64       `toml:"auto_mode_moji_wait"` // seconds added per character in auto mode
	CharacterLevel   int           `toml:"character_level"`     // layer restacked by update_view
	StartEntry       string        `toml:"start_entry"`         // Lua entry point wrapped in the coroutine
	RecordTimeout    time.Duration `toml:"record_timeout"`      // deadline of one backlog write
}

// FrameInterval returns the ticker period for the configured frame rate.
func (p PlaybackConfig) FrameInterval() time.Duration {
	if p.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(p.FrameRate)
}

// VoiceHoldConfig decides when auto mode is held at its floor.
// Mode is "playing" (voice track not finished), "activity" (voice level
// above Threshold) or "off".
type VoiceHoldConfig struct {
	Mode      string  `toml:"mode"`
	Threshold float64 `toml:"threshold"`
}

// PlacementConfig lists the X offsets sent to the back or the front of the
// character layer. Other positions stack in the middle band.
type PlacementConfig struct {
	BackOffsets  []float64 `toml:"back_offsets"`
	FrontOffsets []float64 `toml:"front_offsets"`
}

type RenderConfig struct {
	TargetSize  int `toml:"target_size"`  // square off-screen target edge in pixels
	PoolPrepare int `toml:"pool_prepare"` // targets created at startup
}

type AssetsConfig struct {
	Root               string `toml:"root"`
	MaxConcurrentLoads int    `toml:"max_concurrent_loads"`
}

type ScriptConfig struct {
	Dir         string   `toml:"dir"`
	BootScripts []string `toml:"boot_scripts"` // loaded in order before the scenario script
}

type LocaleConfig struct {
	Dir      string `toml:"dir"`
	Language string `toml:"language"` // BCP 47 tag; base language texts live in the scripts
	Base     string `toml:"base"`
	Encoding string `toml:"encoding"` // text table charset: utf-8, gbk, big5 or shift_jis
}

type AudioConfig struct {
	Enabled    bool    `toml:"enabled"`
	Chapters   string  `toml:"chapters"` // chapter audio table, relative to the assets root
	BGMVolume  float64 `toml:"bgm_volume"`
	VoiceVol   float64 `toml:"voice_volume"`
	SEVolume   float64 `toml:"se_volume"`
	SEChannels int     `toml:"se_channels"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables persistence
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // log destination while the terminal view owns the screen
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Playback.TextSpeed <= 0 {
		return fmt.Errorf("playback.text_speed must be positive, got %v", c.Playback.TextSpeed)
	}
	if c.Playback.RecordTimeout <= 0 {
		return fmt.Errorf("playback.record_timeout must be positive, got %v", c.Playback.RecordTimeout)
	}
	if c.Render.TargetSize <= 0 {
		return fmt.Errorf("render.target_size must be positive, got %d", c.Render.TargetSize)
	}
	switch c.VoiceHold.Mode {
	case "playing", "activity", "off":
	default:
		return fmt.Errorf("voice_hold.mode %q: want playing, activity or off", c.VoiceHold.Mode)
	}
	switch c.Locale.Encoding {
	case "", "utf-8", "gbk", "big5", "shift_jis":
	default:
		return fmt.Errorf("locale.encoding %q: want utf-8, gbk, big5 or shift_jis", c.Locale.Encoding)
	}
	if c.Assets.MaxConcurrentLoads <= 0 {
		c.Assets.MaxConcurrentLoads = 1
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Playback: PlaybackConfig{
			FrameRate:        60,
			TextSpeed:        30,
			AutoModeMinWait:  1.0,
			AutoModeMojiWait: 0.05,
			CharacterLevel:   2,
			StartEntry:       "ADV_Start",
			RecordTimeout:    5 * time.Second,
		},
		VoiceHold: VoiceHoldConfig{
			Mode:      "playing",
			Threshold: 0.01,
		},
		Placement: PlacementConfig{
			BackOffsets:  []float64{300, 450},
			FrontOffsets: []float64{-300, -450},
		},
		Render: RenderConfig{
			TargetSize:  1200,
			PoolPrepare: 5,
		},
		Assets: AssetsConfig{
			Root:               "assets",
			MaxConcurrentLoads: 4,
		},
		Script: ScriptConfig{
			Dir:         "scripts",
			BootScripts: []string{"System", "Main", "Include"},
		},
		Locale: LocaleConfig{
			Dir:      "locale",
			Language: "zh-CN",
			Base:     "zh-CN",
			Encoding: "utf-8",
		},
		Audio: AudioConfig{
			Enabled:    true,
			Chapters:   "audio/chapters.yaml",
			BGMVolume:  1.0,
			VoiceVol:   1.0,
			SEVolume:   1.0,
			SEChannels: 8,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "advlite.log",
		},
	}
}
