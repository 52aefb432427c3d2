// Package config loads gbm's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the user preferences consumed by the engine and the drivers.
type AppConfig struct {
	DefaultBaseBranch string   // base-branch hint; main/master are tried after it
	ProtectedBranches []string // deleting these needs a second confirmation
	ShowRemotes       bool
	AheadBehind       bool // compute ahead/behind per local branch (one git call each)
	AutoRefresh       bool
	AuthorEmail       string // overrides `git config user.email` for the "mine" filter
	MaxAgeDays        int
	DebugLog          string
	FetchTimeout      time.Duration
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		ProtectedBranches: []string{"main", "master", "develop"},
		AheadBehind:       true,
		AutoRefresh:       true,
		MaxAgeDays:        30,
		FetchTimeout:      2 * time.Minute,
	}
}

// MaxAge returns the age window used when the age filter is switched on.
func (c *AppConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

// IsProtected reports whether name is in the protected set.
func (c *AppConfig) IsProtected(name string) bool {
	for _, p := range c.ProtectedBranches {
		if p == name {
			return true
		}
	}
	return false
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()

	if base, ok := data["default_base_branch"].(string); ok {
		cfg.DefaultBaseBranch = strings.TrimSpace(base)
	}
	if email, ok := data["author_email"].(string); ok {
		cfg.AuthorEmail = strings.TrimSpace(email)
	}
	if debugLog, ok := data["debug_log"].(string); ok {
		cfg.DebugLog = strings.TrimSpace(debugLog)
	}
	if _, ok := data["protected_branches"]; ok {
		cfg.ProtectedBranches = normalizeList(data["protected_branches"])
	}

	cfg.ShowRemotes = coerceBool(data["show_remotes"], cfg.ShowRemotes)
	cfg.AheadBehind = coerceBool(data["ahead_behind"], cfg.AheadBehind)
	cfg.AutoRefresh = coerceBool(data["auto_refresh"], cfg.AutoRefresh)

	if days := coerceInt(data["max_age_days"], cfg.MaxAgeDays); days > 0 {
		cfg.MaxAgeDays = days
	}
	if secs := coerceInt(data["fetch_timeout_seconds"], 0); secs > 0 {
		cfg.FetchTimeout = time.Duration(secs) * time.Second
	}

	return cfg
}

// normalizeList accepts either a single string or a YAML list.
func normalizeList(value any) []string {
	switch v := value.(type) {
	case string:
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	case []any:
		out := []string{}
		for _, item := range v {
			if item == nil {
				continue
			}
			if text := strings.TrimSpace(fmt.Sprintf("%v", item)); text != "" {
				out = append(out, text)
			}
		}
		return out
	}
	return []string{}
}

func coerceBool(value any, defaultVal bool) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

func coerceInt(value any, defaultVal int) int {
	switch v := value.(type) {
	case int:
		return v
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return defaultVal
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// LoadConfig reads the configuration from configPath, or from the default
// location when configPath is empty. A missing file yields the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	var paths []string
	if configPath != "" {
		expanded, err := ExpandPath(configPath)
		if err != nil {
			return DefaultConfig(), err
		}
		paths = []string{expanded}
	} else {
		base := filepath.Join(getConfigDir(), "gbm")
		paths = []string{
			filepath.Join(base, "config.yaml"),
			filepath.Join(base, "config.yml"),
		}
	}

	for _, path := range paths {
		// #nosec G304 -- the path comes from the user's own flag or config dir
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			if configPath != "" {
				return DefaultConfig(), fmt.Errorf("config file %s does not exist", path)
			}
			continue
		}
		if err != nil {
			return DefaultConfig(), fmt.Errorf("failed to read config: %w", err)
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return parseConfig(yamlData), nil
	}

	return DefaultConfig(), nil
}

// DefaultLogPath is where the debug log goes when only --debug is given.
func DefaultLogPath() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "gbm", "gbm.log")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "gbm", "gbm.log")
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}
