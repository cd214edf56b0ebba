package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the full set of tunables queuectl reads from config.json.
type Config struct {
	MaxRetries                uint32 `mapstructure:"max_retries"`
	BackoffBase               uint32 `mapstructure:"backoff_base"`
	WorkerCount               int    `mapstructure:"worker_count"`
	DataFile                  string `mapstructure:"data_file"`
	JobTimeoutSeconds         int    `mapstructure:"job_timeout_seconds"`
	RetryCheckIntervalSeconds int    `mapstructure:"retry_check_interval_seconds"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_retries", 3)
	v.SetDefault("backoff_base", 2)
	v.SetDefault("worker_count", 3)
	v.SetDefault("data_file", "jobs.json")
	v.SetDefault("job_timeout_seconds", 300)
	v.SetDefault("retry_check_interval_seconds", 30)
}

// Manager owns one config.json file: the live viper instance backing
// it, and the last successfully parsed Config.
type Manager struct {
	mu      sync.RWMutex
	v       *viper.Viper
	path    string
	current Config
}

// Load reads path as JSON config. If the file does not exist, it is
// created with the documented defaults.
func Load(path string) (*Manager, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := v.SafeWriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("config: write defaults to %s: %w", path, err)
		}
	}

	m := &Manager{v: v, path: path}
	if err := m.reloadLocked(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) reloadLocked() error {
	var c Config
	if err := m.v.Unmarshal(&c); err != nil {
		return fmt.Errorf("config: parse %s: %w", m.path, err)
	}
	m.current = c
	return nil
}

// Current returns the most recently loaded Config.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Path returns the config file path this Manager was loaded from.
func (m *Manager) Path() string {
	return m.path
}

// Reload re-reads the config file from disk.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reload %s: %w", m.path, err)
	}
	return m.reloadLocked()
}

// Set updates a single key and persists the full config back to disk.
func (m *Manager) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v.Set(key, value)
	if err := m.reloadLocked(); err != nil {
		return err
	}
	if err := m.v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("config: write %s: %w", m.path, err)
	}
	return nil
}

// Show returns every configured key-value pair, for the "config show"
// CLI command.
func (m *Manager) Show() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.AllSettings()
}

// Watch installs a filesystem watch on the config file via viper's
// fsnotify integration and invokes onChange with the freshly parsed
// Config every time the file is edited externally. Watch stays
// outside the core processing path: it only ever feeds a new Config
// value to the caller, who decides whether and how to apply it.
func (m *Manager) Watch(onChange func(Config)) {
	m.v.OnConfigChange(func(_ fsnotify.Event) {
		m.mu.Lock()
		err := m.reloadLocked()
		c := m.current
		m.mu.Unlock()
		if err == nil && onChange != nil {
			onChange(c)
		}
	})
	m.v.WatchConfig()
}
