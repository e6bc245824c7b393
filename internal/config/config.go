// Package config loads and persists the on-disk TrackPal configuration
// and adaptive-learning state: TOML files under the XDG config
// directory, in the same load/write/migrate shape used elsewhere in
// this codebase's daemons.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	pkgconfig "github.com/jason5545/TrackPal/pkg/config"
)

const (
	configFileName   = "config.toml"
	adaptiveFileName = "adaptive.toml"
	appDirName       = "trackpal"
)

// fileConfig is the TOML wire shape for the persisted configuration.
// Enum fields are stored as their underlying ints; CornerActions is
// stored as a string-keyed map since TOML has no integer-keyed maps.
type fileConfig struct {
	EdgeZoneWidth         float64
	HorizontalZoneHeight  float64
	ScrollMultiplier      float64
	VerticalEdgeMode      int
	HorizontalPosition    int
	MiddleClickEnabled    bool
	MiddleClickZoneWidth  float64
	MiddleClickZoneHeight float64

	CornerTriggerEnabled  bool
	CornerTriggerZoneSize float64
	CornerActions         map[string]int

	AccelerationCurve int

	FilterLightTouches        bool
	LightTouchDensityThresh   float64
	FilterLargeTouches        bool
	LargeTouchMajorAxisThresh float64
	LargeTouchMinorAxisThresh float64

	LaunchAtLogin bool
	IsEnabled     bool

	// legacy keys, migrated in memory on every load that finds them;
	// see migrateLegacyKeys.
	EdgeWidth       float64 `toml:"edge_width,omitempty"`
	ScrollSpeed     float64 `toml:"scroll_speed,omitempty"`
	VerticalEdgeStr string  `toml:"vertical_edge,omitempty"`
}

var cornerNames = [4]string{"top_left", "top_right", "bottom_left", "bottom_right"}

// Store owns the on-disk location of TrackPal's persisted state and
// mediates every read/write of it.
type Store struct {
	logger zerolog.Logger
	dir    string
}

// New returns a Store rooted at the XDG config directory
// (~/.config/trackpal by default).
func New() *Store {
	return &Store{
		logger: log.With().Str("module", "config").Logger(),
		dir:    configDir(),
	}
}

// LoadConfig reads the persisted configuration, initializing it with
// defaults on first run and migrating legacy keys forward. It never
// fails startup: a corrupt or unreadable file falls back to defaults
// (spec.md §7).
func (s *Store) LoadConfig() pkgconfig.Config {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.logger.Error().Err(err).Msg("could not create config directory, using in-memory defaults")
		return pkgconfig.Default()
	}

	path := filepath.Join(s.dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Info().Msg("no config found, writing defaults")
		def := pkgconfig.Default()
		s.SaveConfig(def)
		return def
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		s.logger.Error().Err(err).Msg("config file is corrupt, falling back to defaults")
		return pkgconfig.Default()
	}

	migrateLegacyKeys(&fc)
	return fromFile(fc)
}

// SaveConfig persists cfg to disk, overwriting the previous file.
func (s *Store) SaveConfig(cfg pkgconfig.Config) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.logger.Error().Err(err).Msg("could not create config directory")
		return
	}

	fc := toFile(cfg)
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&fc); err != nil {
		s.logger.Error().Err(err).Msg("could not encode config")
		return
	}

	path := filepath.Join(s.dir, configFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		s.logger.Error().Err(err).Msg("could not write config file")
	}
}

// LoadAdaptiveState reads the persisted adaptive-learning state,
// clamping it into range and falling back to fresh defaults if it is
// missing or unreadable (spec.md §7).
func (s *Store) LoadAdaptiveState() pkgconfig.AdaptiveState {
	path := filepath.Join(s.dir, adaptiveFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return pkgconfig.DefaultAdaptiveState()
	}

	var state pkgconfig.AdaptiveState
	if _, err := toml.DecodeFile(path, &state); err != nil {
		s.logger.Warn().Err(err).Msg("adaptive state file is corrupt, resetting")
		return pkgconfig.DefaultAdaptiveState()
	}

	state.Clamp()
	return state
}

// SaveAdaptiveState persists the adaptive-learning state. Intended to
// be wired as the adaptive.Learner's persistence callback.
func (s *Store) SaveAdaptiveState(state pkgconfig.AdaptiveState) {
	path := filepath.Join(s.dir, adaptiveFileName)
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&state); err != nil {
		s.logger.Error().Err(err).Msg("could not encode adaptive state")
		return
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		s.logger.Error().Err(err).Msg("could not write adaptive state file")
	}
}

func toFile(cfg pkgconfig.Config) fileConfig {
	actions := make(map[string]int, len(cfg.CornerActions))
	for corner, action := range cfg.CornerActions {
		if int(corner) >= 0 && int(corner) < len(cornerNames) {
			actions[cornerNames[corner]] = int(action)
		}
	}

	return fileConfig{
		EdgeZoneWidth:             cfg.EdgeZoneWidth,
		HorizontalZoneHeight:      cfg.HorizontalZoneHeight,
		ScrollMultiplier:          cfg.ScrollMultiplier,
		VerticalEdgeMode:          int(cfg.VerticalEdgeMode),
		HorizontalPosition:        int(cfg.HorizontalPosition),
		MiddleClickEnabled:        cfg.MiddleClickEnabled,
		MiddleClickZoneWidth:      cfg.MiddleClickZoneWidth,
		MiddleClickZoneHeight:     cfg.MiddleClickZoneHeight,
		CornerTriggerEnabled:      cfg.CornerTriggerEnabled,
		CornerTriggerZoneSize:     cfg.CornerTriggerZoneSize,
		CornerActions:             actions,
		AccelerationCurve:         int(cfg.AccelerationCurve),
		FilterLightTouches:        cfg.FilterLightTouches,
		LightTouchDensityThresh:   cfg.LightTouchDensityThresh,
		FilterLargeTouches:        cfg.FilterLargeTouches,
		LargeTouchMajorAxisThresh: cfg.LargeTouchMajorAxisThresh,
		LargeTouchMinorAxisThresh: cfg.LargeTouchMinorAxisThresh,
		LaunchAtLogin:             cfg.LaunchAtLogin,
		IsEnabled:                 cfg.IsEnabled,
	}
}

func fromFile(fc fileConfig) pkgconfig.Config {
	cfg := pkgconfig.Default()
	cfg.EdgeZoneWidth = fc.EdgeZoneWidth
	cfg.HorizontalZoneHeight = fc.HorizontalZoneHeight
	cfg.ScrollMultiplier = fc.ScrollMultiplier
	cfg.VerticalEdgeMode = pkgconfig.VerticalEdgeMode(fc.VerticalEdgeMode)
	cfg.HorizontalPosition = pkgconfig.HorizontalPosition(fc.HorizontalPosition)
	cfg.MiddleClickEnabled = fc.MiddleClickEnabled
	cfg.MiddleClickZoneWidth = fc.MiddleClickZoneWidth
	cfg.MiddleClickZoneHeight = fc.MiddleClickZoneHeight
	cfg.CornerTriggerEnabled = fc.CornerTriggerEnabled
	cfg.CornerTriggerZoneSize = fc.CornerTriggerZoneSize
	cfg.AccelerationCurve = pkgconfig.AccelerationCurve(fc.AccelerationCurve)
	cfg.FilterLightTouches = fc.FilterLightTouches
	cfg.LightTouchDensityThresh = fc.LightTouchDensityThresh
	cfg.FilterLargeTouches = fc.FilterLargeTouches
	cfg.LargeTouchMajorAxisThresh = fc.LargeTouchMajorAxisThresh
	cfg.LargeTouchMinorAxisThresh = fc.LargeTouchMinorAxisThresh
	cfg.LaunchAtLogin = fc.LaunchAtLogin
	cfg.IsEnabled = fc.IsEnabled

	cfg.CornerActions = make(map[pkgconfig.Corner]pkgconfig.CornerAction, len(fc.CornerActions))
	for i, name := range cornerNames {
		if action, ok := fc.CornerActions[name]; ok {
			cfg.CornerActions[pkgconfig.Corner(i)] = pkgconfig.CornerAction(action)
		}
	}

	return cfg
}

// migrateLegacyKeys rewrites keys from a pre-rename config layout
// ("edge_width", "scroll_speed", "vertical_edge" as a string) into the
// current fileConfig fields, in place, so a config written by an
// earlier build still loads sensibly.
func migrateLegacyKeys(fc *fileConfig) {
	if fc.EdgeZoneWidth == 0 && fc.EdgeWidth != 0 {
		fc.EdgeZoneWidth = fc.EdgeWidth
	}
	if fc.ScrollMultiplier == 0 && fc.ScrollSpeed != 0 {
		fc.ScrollMultiplier = fc.ScrollSpeed
	}
	switch fc.VerticalEdgeStr {
	case "left":
		fc.VerticalEdgeMode = int(pkgconfig.VerticalEdgeLeft)
	case "both":
		fc.VerticalEdgeMode = int(pkgconfig.VerticalEdgeBoth)
	case "right":
		fc.VerticalEdgeMode = int(pkgconfig.VerticalEdgeRight)
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	return filepath.Join(os.Getenv("HOME"), ".config", appDirName)
}
