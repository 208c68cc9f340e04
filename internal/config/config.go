/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	applog "dragoneye/internal/log"
	"dragoneye/internal/viewport"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	Theme       string `yaml:"theme"` // "system" | "light" | "dark"
	LibraryPath string `yaml:"library_path"`
	CrashDir    string `yaml:"crash_dir"`
}

// ViewportConfig mirrors viewport.Options. Zero values fall back to the
// viewport defaults.
type ViewportConfig struct {
	MinScale           float64 `yaml:"min_scale"`
	MaxScale           float64 `yaml:"max_scale"`
	ZoomStep           float64 `yaml:"zoom_step"`
	SelectionThreshold float64 `yaml:"selection_threshold"`
	FrameIntervalMs    int     `yaml:"frame_interval_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Viewport      ViewportConfig `yaml:"viewport"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Viewport: ViewportConfig{
			MinScale:           viewport.DefaultMinScale,
			MaxScale:           viewport.DefaultMaxScale,
			ZoomStep:           viewport.DefaultZoomStep,
			SelectionThreshold: viewport.DefaultSelectionThreshold,
			FrameIntervalMs:    int(viewport.DefaultFrameInterval / time.Millisecond),
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath = "DCE_CONFIG"
	EnvTheme      = "DCE_THEME"
	EnvLibrary    = "DCE_LIBRARY"
	EnvCrashDir   = "DCE_CRASH_DIR"
	// viewport tuning
	EnvMinScale  = "DCE_MIN_SCALE"
	EnvMaxScale  = "DCE_MAX_SCALE"
	EnvZoomStep  = "DCE_ZOOM_STEP"
	EnvThreshold = "DCE_SELECTION_THRESHOLD"
	EnvFrameMs   = "DCE_FRAME_INTERVAL_MS"
	// EnvLogLevel Logging envs, shared with internal/log
	EnvLogLevel  = applog.EnvLevel
	EnvLogFormat = applog.EnvFormat
	EnvLogSource = applog.EnvSource
	EnvLogFile   = applog.EnvFile
)

// ConfigPath returns the per-user config file path. DCE_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Dragoneye")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Dragoneye")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "dragoneye")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "dragoneye")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. A file that exists but does not parse is reported
// together with the defaults so callers can warn and continue.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			parseErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, parseErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.Theme); s != "" {
		dst.General.Theme = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.General.LibraryPath); s != "" {
		dst.General.LibraryPath = s
	}
	if s := strings.TrimSpace(src.General.CrashDir); s != "" {
		dst.General.CrashDir = s
	}
	// viewport: only positive values replace defaults
	if src.Viewport.MinScale > 0 {
		dst.Viewport.MinScale = src.Viewport.MinScale
	}
	if src.Viewport.MaxScale > 0 {
		dst.Viewport.MaxScale = src.Viewport.MaxScale
	}
	if src.Viewport.ZoomStep > 0 {
		dst.Viewport.ZoomStep = src.Viewport.ZoomStep
	}
	if src.Viewport.SelectionThreshold > 0 {
		dst.Viewport.SelectionThreshold = src.Viewport.SelectionThreshold
	}
	if src.Viewport.FrameIntervalMs > 0 {
		dst.Viewport.FrameIntervalMs = src.Viewport.FrameIntervalMs
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func envFloat(key string, dst *float64) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			*dst = f
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibrary)); v != "" {
		cfg.General.LibraryPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCrashDir)); v != "" {
		cfg.General.CrashDir = v
	}
	envFloat(EnvMinScale, &cfg.Viewport.MinScale)
	envFloat(EnvMaxScale, &cfg.Viewport.MaxScale)
	envFloat(EnvZoomStep, &cfg.Viewport.ZoomStep)
	envFloat(EnvThreshold, &cfg.Viewport.SelectionThreshold)
	if v := strings.TrimSpace(os.Getenv(EnvFrameMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Viewport.FrameIntervalMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.theme":                EnvTheme,
	"general.library_path":         EnvLibrary,
	"general.crash_dir":            EnvCrashDir,
	"viewport.min_scale":           EnvMinScale,
	"viewport.max_scale":           EnvMaxScale,
	"viewport.zoom_step":           EnvZoomStep,
	"viewport.selection_threshold": EnvThreshold,
	"viewport.frame_interval_ms":   EnvFrameMs,
	"logging.level":                EnvLogLevel,
	"logging.format":               EnvLogFormat,
	"logging.source":               EnvLogSource,
	"logging.file":                 EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// Options converts the section into viewport options. Scheduler and logger
// are left for the caller.
func (v ViewportConfig) Options() viewport.Options {
	return viewport.Options{
		MinScale:           v.MinScale,
		MaxScale:           v.MaxScale,
		ZoomStep:           v.ZoomStep,
		SelectionThreshold: v.SelectionThreshold,
		FrameInterval:      time.Duration(v.FrameIntervalMs) * time.Millisecond,
	}
}

// Options converts the section into logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

// LibraryFile returns the deck library database path, defaulting to
// library.db next to the config file.
func (c AppConfig) LibraryFile() (string, error) {
	if p := strings.TrimSpace(c.General.LibraryPath); p != "" {
		return p, nil
	}
	cp, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cp), "library.db"), nil
}
