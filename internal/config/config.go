package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/titanous/json5"

	"github.com/Rorical/RoriLog/internal/store"
)

// BackendRemote selects the HTTP bridge to a "rorilog serve" instance
// instead of a local workbook.
const BackendRemote = "remote"

const (
	DefaultProfile     = "default"
	DefaultCallTimeout = 10 * time.Second
)

// Profile selects where the log lives. Target is a directory (jsonl), a file
// (sqlite, bolt), an address (redis), a connection string (postgres) or a
// base URL (remote). Local file backends default to the config directory.
type Profile struct {
	Backend string `json:"backend"`
	Target  string `json:"target,omitempty"`
	Sheet   string `json:"sheet,omitempty"`
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles"`
	ActiveProfile string             `json:"active_profile"`
	CallTimeoutMS int                `json:"call_timeout_ms,omitempty"`
	LogLevel      string             `json:"log_level,omitempty"`

	currentProfile *Profile
	path           string
}

// Backends lists every backend a profile may name.
func Backends() []string {
	return append(slices.Clone(store.Backends), BackendRemote)
}

func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.path = configPath

	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	return config, nil
}

// Validate checks a profile before it is stored or used.
func (p Profile) Validate() error {
	backend := strings.ToLower(strings.TrimSpace(p.Backend))
	if !slices.Contains(Backends(), backend) {
		return fmt.Errorf("unknown backend %q: must be one of %v", p.Backend, Backends())
	}
	switch backend {
	case store.BackendRedis, store.BackendPostgres, BackendRemote:
		if strings.TrimSpace(p.Target) == "" {
			return fmt.Errorf("backend %q needs a target", backend)
		}
	}
	if err := store.CheckSheetName(strings.TrimSpace(p.Sheet)); err != nil {
		return fmt.Errorf("sheet %q: %w", p.Sheet, err)
	}
	return nil
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.currentProfile.Validate() == nil
}

// Current returns the active profile.
func (c *Config) Current() Profile {
	if c.currentProfile == nil {
		return DefaultProfileFor(c.DataDir())
	}
	return *c.currentProfile
}

// UseProfile makes name the active profile.
func (c *Config) UseProfile(name string) error {
	profile, exists := c.Profiles[name]
	if !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	c.currentProfile = &profile
	return nil
}

// ProfileNames returns the profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DataDir is the directory holding the config file and local logs.
func (c *Config) DataDir() string {
	if c.path != "" {
		return filepath.Dir(c.path)
	}
	if configPath, err := getConfigPath(); err == nil {
		return filepath.Dir(configPath)
	}
	return "."
}

// ResolveTarget fills in the default location for local file backends.
func (c *Config) ResolveTarget(p Profile) string {
	if p.Target != "" {
		return p.Target
	}
	switch strings.ToLower(strings.TrimSpace(p.Backend)) {
	case store.BackendJSONL:
		return filepath.Join(c.DataDir(), "log")
	case store.BackendSQLite:
		return filepath.Join(c.DataDir(), "rorilog.db")
	case store.BackendBolt:
		return filepath.Join(c.DataDir(), "rorilog.bolt")
	}
	return ""
}

func (c *Config) GetCallTimeout() time.Duration {
	if c.CallTimeoutMS <= 0 {
		return DefaultCallTimeout
	}
	return time.Duration(c.CallTimeoutMS) * time.Millisecond
}

func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DefaultProfileFor is the profile written on first run: a JSON Lines log
// under dataDir.
func DefaultProfileFor(dataDir string) Profile {
	return Profile{
		Backend: store.BackendJSONL,
		Target:  filepath.Join(dataDir, "log"),
	}
}

func getConfigPath() (string, error) {
	var configDir string

	// Use RORILOG_HOME if set, otherwise use user's home directory
	if home := os.Getenv("RORILOG_HOME"); home != "" {
		configDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".rorilog", "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Hand-edited configs may carry comments and trailing commas.
	var config Config
	if err := json5.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	return &config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			DefaultProfile: DefaultProfileFor(filepath.Dir(configPath)),
		},
		ActiveProfile: DefaultProfile,
	}

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		var err error
		configPath, err = getConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	if _, exists := c.Profiles[c.ActiveProfile]; !exists {
		// Fall back to the first profile by name so the choice is stable.
		c.ActiveProfile = c.ProfileNames()[0]
	}

	profile := c.Profiles[c.ActiveProfile]
	c.currentProfile = &profile
	return nil
}
