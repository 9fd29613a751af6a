package mixer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name.
	DefaultBaseDir = ".mixerctl"
	// DefaultConfigFile is the default configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config is the on-disk configuration for a mixer process: audio device
// parameters plus the storage and recording backends wired up around it.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Sound   SoundConfig   `yaml:"sound,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`

	configPath string
}

// AudioConfig configures the live mixdown device.
type AudioConfig struct {
	SampleRate int `yaml:"rate,omitempty"`
	BufferSize int `yaml:"bufsize,omitempty"`
}

// SoundConfig configures where sounds are loaded from and cached to.
type SoundConfig struct {
	StoreDir  string `yaml:"store_dir,omitempty"`
	S3Bucket  string `yaml:"s3_bucket,omitempty"`
	CacheDir  string `yaml:"cache_dir,omitempty"`
}

// SessionConfig configures recorded-session output.
type SessionConfig struct {
	RecordDir string `yaml:"record_dir,omitempty"`
}

const (
	defaultSampleRate = 48000
	defaultBufferSize = 1024
)

// LoadConfig loads or creates the configuration at the default path for
// appName, under the user's home directory.
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from customPath, or from the
// default per-user location when customPath is empty. A missing file is
// not an error: a default configuration is created and saved in its place.
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("mixer: resolve home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, appName, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return nil, fmt.Errorf("mixer: create config directory: %w", err)
	}

	cfg := &Config{
		Audio:      AudioConfig{SampleRate: defaultSampleRate, BufferSize: defaultBufferSize},
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("mixer: read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("mixer: parse config: %w", err)
	}
	cfg.configPath = configPath
	cfg.normalize()
	return cfg, nil
}

// configMaxBufferSize is the config-file buffer size ceiling, per §6 —
// narrower than the mixdown's own [32, 32768] acceptance range in
// newMixdown, since a config default has no business requesting a buffer
// that large.
const configMaxBufferSize = 4096

// Normalize rounds the buffer size up to the nearest power of two and
// clamps it to the configuration's accepted range, and fills in defaults
// for zero fields. Callers that mutate Audio fields directly (e.g. a CLI
// "config set") should call this before Save.
func (c *Config) Normalize() {
	c.normalize()
}

func (c *Config) normalize() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.BufferSize == 0 {
		c.Audio.BufferSize = defaultBufferSize
	}
	bs := c.Audio.BufferSize
	pow := minBufSize
	for pow < bs && pow < configMaxBufferSize {
		pow <<= 1
	}
	c.Audio.BufferSize = pow
}

// Save writes the configuration back to its loaded path.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("mixer: marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("mixer: write config: %w", err)
	}
	return nil
}
