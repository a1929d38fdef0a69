package config

import (
	"fmt"
	"strings"
	"time"
)

// Config keys
const (
	KeyStateDir        = "state-dir"
	KeyJSON            = "json"
	KeyPipelineDefault = "pipeline.default"
	KeyPipelinePaths   = "pipeline.paths"
	KeyEventsFile      = "events.file"
	KeyEventsEnabled   = "events.enabled"
	KeyHooksDir        = "hooks.dir"
	KeyHooksTimeout    = "hooks.timeout"
	KeyLogLevel        = "log.level"
)

// Key describes one configuration key.
type Key struct {
	Name        string // full key name (e.g., "hooks.timeout")
	Description string // human-readable description
	EnvVar      string // environment override
	Default     interface{}
	Validate    func(string) error
}

// Keys defines every configuration key conductor reads.
var Keys = []Key{
	{
		Name:        KeyStateDir,
		Description: "State directory (default: nearest .conductor/ walking up from the working directory)",
		EnvVar:      "CONDUCTOR_DIR",
		Default:     "",
	},
	{
		Name:        KeyJSON,
		Description: "Emit JSON output from every command",
		EnvVar:      "CONDUCTOR_JSON",
		Default:     false,
		Validate:    validateBool,
	},
	{
		Name:        KeyPipelineDefault,
		Description: "Template used by `conductor init` when none is named",
		EnvVar:      "CONDUCTOR_PIPELINE_DEFAULT",
		Default:     "",
	},
	{
		Name:        KeyPipelinePaths,
		Description: "Extra glob patterns for pipeline registry files",
		EnvVar:      "CONDUCTOR_PIPELINE_PATHS",
		Default:     []string{},
	},
	{
		Name:        KeyEventsFile,
		Description: "Event log path (default: <state-dir>/events.jsonl)",
		EnvVar:      "CONDUCTOR_EVENTS_FILE",
		Default:     "",
	},
	{
		Name:        KeyEventsEnabled,
		Description: "Append stage events to the event log",
		EnvVar:      "CONDUCTOR_EVENTS_ENABLED",
		Default:     true,
		Validate:    validateBool,
	},
	{
		Name:        KeyHooksDir,
		Description: "Hook script directory (default: <state-dir>/hooks)",
		EnvVar:      "CONDUCTOR_HOOKS_DIR",
		Default:     "",
	},
	{
		Name:        KeyHooksTimeout,
		Description: "Maximum run time of one hook script",
		EnvVar:      "CONDUCTOR_HOOKS_TIMEOUT",
		Default:     "10s",
		Validate:    validateDuration,
	},
	{
		Name:        KeyLogLevel,
		Description: "Diagnostic log level (debug, info, warn, error)",
		EnvVar:      "CONDUCTOR_LOG_LEVEL",
		Default:     "warn",
		Validate:    validateLogLevel,
	},
}

// keyMap is a lookup table built from Keys.
var keyMap map[string]*Key

func init() {
	keyMap = make(map[string]*Key, len(Keys))
	for i := range Keys {
		keyMap[Keys[i].Name] = &Keys[i]
	}
}

// LookupKey returns the Key definition, or nil if key is not recognized.
func LookupKey(key string) *Key {
	return keyMap[key]
}

// ValidateKey checks whether key is known and value is acceptable for it.
func ValidateKey(key, value string) error {
	k := keyMap[key]
	if k == nil {
		known := make([]string, 0, len(Keys))
		for _, k := range Keys {
			known = append(known, k.Name)
		}
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(known, ", "))
	}
	if k.Validate != nil {
		if err := k.Validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

// EnvMap returns a mapping from key to environment variable name.
func EnvMap() map[string]string {
	m := make(map[string]string, len(Keys))
	for _, k := range Keys {
		if k.EnvVar != "" {
			m[k.Name] = k.EnvVar
		}
	}
	return m
}

// Validation helpers

func validateLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of: debug, info, warn, error; got %q", value)
	}
}

func validateBool(value string) error {
	switch strings.ToLower(value) {
	case "true", "false", "1", "0", "yes", "no":
		return nil
	default:
		return fmt.Errorf("must be true or false, got %q", value)
	}
}

func validateDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a duration like 10s or 1m, got %q", value)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", value)
	}
	return nil
}
