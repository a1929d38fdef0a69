// Package config is the viper-backed configuration layer.
//
// Sources, highest first: command-line flags (applied by the caller),
// CONDUCTOR_* environment variables, .conductor/config.yaml found by walking
// up from the working directory, the user config file
// ($XDG_CONFIG_HOME/conductor/config.yaml), then the defaults in Keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	if path := findConfigFile(); path != "" {
		v.SetConfigFile(path)
	}

	// CONDUCTOR_EVENTS_ENABLED -> events.enabled, CONDUCTOR_STATE_DIR -> state-dir
	v.SetEnvPrefix("CONDUCTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, k := range Keys {
		v.SetDefault(k.Name, k.Default)
		if k.EnvVar != "" {
			if err := v.BindEnv(k.Name, k.EnvVar); err != nil {
				return fmt.Errorf("binding %s: %w", k.EnvVar, err)
			}
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	return validate()
}

// validate checks every known key that has a validator.
func validate() error {
	for _, k := range Keys {
		if k.Validate == nil || !v.IsSet(k.Name) {
			continue
		}
		if err := ValidateKey(k.Name, v.GetString(k.Name)); err != nil {
			return err
		}
	}
	return nil
}

// findConfigFile looks for .conductor/config.yaml from the working directory
// upward, then falls back to the user config directory.
func findConfigFile() string {
	if dir := os.Getenv("CONDUCTOR_DIR"); dir != "" {
		p := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; ; dir = filepath.Dir(dir) {
			p := filepath.Join(dir, ".conductor", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				return p
			}
			if filepath.Dir(dir) == dir {
				break
			}
		}
	}

	if cfgDir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(cfgDir, "conductor", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice retrieves a string slice configuration value.
// A comma-separated environment value is split.
func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	raw := v.GetStringSlice(key)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Set sets a configuration value
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns all configuration settings as a map
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// StateDir returns the configured state directory, or "" to auto-discover.
func StateDir() string {
	return GetString(KeyStateDir)
}

// DefaultPipeline returns the template `conductor init` uses when none is named.
func DefaultPipeline() string {
	return GetString(KeyPipelineDefault)
}

// PipelinePaths returns extra registry glob patterns.
func PipelinePaths() []string {
	return GetStringSlice(KeyPipelinePaths)
}

// EventsEnabled reports whether the event log sink is on.
func EventsEnabled() bool {
	return GetBool(KeyEventsEnabled)
}

// EventsFile returns the event log path, defaulting to events.jsonl under dir.
func EventsFile(dir string) string {
	if p := GetString(KeyEventsFile); p != "" {
		return p
	}
	return filepath.Join(dir, "events.jsonl")
}

// HooksDir returns the hook script directory, defaulting to hooks/ under dir.
func HooksDir(dir string) string {
	if p := GetString(KeyHooksDir); p != "" {
		return p
	}
	return filepath.Join(dir, "hooks")
}

// HooksTimeout returns the per-script timeout.
func HooksTimeout() time.Duration {
	if d := GetDuration(KeyHooksTimeout); d > 0 {
		return d
	}
	return 10 * time.Second
}

// LogLevel returns the diagnostic log level.
func LogLevel() string {
	if l := GetString(KeyLogLevel); l != "" {
		return l
	}
	return "warn"
}
