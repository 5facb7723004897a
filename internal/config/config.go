package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for clipq.
type Config struct {
	HostID     string           `toml:"host_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	InputDir   string           `toml:"input_dir"`
	Batch      BatchConfig      `toml:"batch"`
	Accounts   []AccountConfig  `toml:"accounts"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Hooks      HooksConfig      `toml:"hooks"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BatchConfig holds the defaults for a batch run. Both can be overridden on the command line.
type BatchConfig struct {
	Concurrency int `toml:"concurrency"` // max accounts publishing at once
	Target      int `toml:"target"`      // publishes per account per day
}

// AccountConfig names one account the batch may publish through.
type AccountConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used to encrypt ledger snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default), "test" or "none"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FilesystemConfig holds input enumeration settings.
type FilesystemConfig struct {
	Ignore     []string `toml:"ignore"`
	Extensions []string `toml:"extensions"` // empty means every regular file
}

// VaultConfig represents configuration for a ledger snapshot backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`
	// S3Endpoint overrides the AWS endpoint for S3-compatible stores (path-style addressing).
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig represents configuration for the ledger database.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// HooksConfig selects the session provider and publish pipeline.
// With Type "exec", each command is run through the shell with the
// arguments documented in the hooks package.
type HooksConfig struct {
	Type            string `toml:"type"` // "exec"
	SessionCommand  string `toml:"session_command"`
	ValidateCommand string `toml:"validate_command"`
	PublishCommand  string `toml:"publish_command"`
	TimeoutSeconds  int    `toml:"timeout_seconds"` // 0 means no timeout
}

// DefaultExtensions are the video containers picked up from the input directory.
var DefaultExtensions = []string{".mp4", ".mov", ".mkv", ".webm"}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Batch: BatchConfig{
			Concurrency: 1,
			Target:      5,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "clipq.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "clipq.key"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Hooks: HooksConfig{
			Type:           "exec",
			TimeoutSeconds: 600,
		},
		Filesystem: FilesystemConfig{
			Extensions: DefaultExtensions,
		},
	}
}

// Validate checks the settings a batch run cannot start without.
func (c *Config) Validate() error {
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	if c.Batch.Target < 1 {
		return fmt.Errorf("batch.target must be at least 1, got %d", c.Batch.Target)
	}

	seen := make(map[string]bool, len(c.Accounts))
	for i, a := range c.Accounts {
		if a.ID == "" {
			return fmt.Errorf("accounts[%d]: id is required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("accounts[%d]: duplicate id %q", i, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file at path. It refuses to overwrite an existing one.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
