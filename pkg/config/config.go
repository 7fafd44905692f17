// Package config loads the stele configuration.
//
// Settings are resolved in this order: environment variables (STELE_*), then the
// config file, then defaults. The config file is $STELE_CONFIG when set, otherwise
// stele.yaml searched in the current directory, $HOME/.stele then /etc/stele.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/stele/pkg/errors"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	// EnvPrefix prefixes environment variables overriding settings
	EnvPrefix = "STELE"

	// EnvConfig points to a config file
	EnvConfig = "STELE_CONFIG"

	// Name of the config file, without extension
	Name = "stele"

	// Backends
	BackendLocal = "local"
	BackendS3    = "s3"

	defaultVersion = "0.0.1"
)

var (
	// ErrInvalid indicates a configuration which doesn't validate
	ErrInvalid = errors.New("invalid configuration")

	// ErrRead indicates a config file which cannot be read
	ErrRead = errors.New("cannot read configuration")
)

// Config describes the stele configuration
type Config struct {
	// StoragePath is where executions are tracked
	StoragePath string `json:"storage_path" yaml:"storage_path" mapstructure:"storage_path"`

	// SnapshotRoot is where checkpoints are saved
	SnapshotRoot string `json:"snapshot_root" yaml:"snapshot_root" mapstructure:"snapshot_root"`

	// DefaultBackend is the kind of store used to push and pull checkpoints
	DefaultBackend string `json:"default_backend" yaml:"default_backend" mapstructure:"default_backend"`

	// Remote is the location of that store, e.g. s3://bucket/prefix or a local directory
	Remote string `json:"remote,omitempty" yaml:"remote,omitempty" mapstructure:"remote"`

	Version  string `json:"version" yaml:"version" mapstructure:"version"`
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// CheckpointInterval is the default interval in seconds between checkpoints of a task. Zero disables them.
	CheckpointInterval float64 `json:"checkpoint_interval" yaml:"checkpoint_interval" mapstructure:"checkpoint_interval"`
}

// Default configuration
func Default() *Config {
	return &Config{
		StoragePath:    model.DefaultExecRoot,
		SnapshotRoot:   model.DefaultSnapshotRoot,
		DefaultBackend: BackendLocal,
		Version:        defaultVersion,
		LogLevel:       "info",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage_path", d.StoragePath)
	v.SetDefault("snapshot_root", d.SnapshotRoot)
	v.SetDefault("default_backend", d.DefaultBackend)
	v.SetDefault("remote", d.Remote)
	v.SetDefault("version", d.Version)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("checkpoint_interval", d.CheckpointInterval)
}

// New viper instance resolving stele settings
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if cfg := os.Getenv(EnvConfig); cfg != "" {
		v.SetConfigFile(cfg)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", "."+Name))
		v.AddConfigPath(filepath.Join("/etc", Name))
		v.SetConfigName(Name)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load the configuration and return it with the path to the config file used, if any.
//
// A missing config file is not an error.
func Load() (*Config, string, error) {
	return LoadFrom(New())
}

// LoadFrom resolves the configuration from a viper instance
func LoadFrom(v *viper.Viper) (*Config, string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", ErrRead.Wrap(err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, "", ErrRead.Wrap(err)
	}
	return &c, v.ConfigFileUsed(), nil
}

// Validate the configuration
func (c *Config) Validate() error {
	switch {
	case c.DefaultBackend == "":
		return ErrInvalid.WrapMessage("default_backend must be set")
	case c.DefaultBackend != BackendLocal && c.DefaultBackend != BackendS3:
		return ErrInvalid.WrapMessage("unsupported default_backend: " + c.DefaultBackend)
	case c.Version == "":
		return ErrInvalid.WrapMessage("version must be set")
	case c.StoragePath == "":
		return ErrInvalid.WrapMessage("storage_path must be set")
	case c.SnapshotRoot == "":
		return ErrInvalid.WrapMessage("snapshot_root must be set")
	case c.CheckpointInterval < 0:
		return ErrInvalid.WrapMessage("checkpoint_interval must not be negative")
	case c.DefaultBackend == BackendS3 && !strings.HasPrefix(c.Remote, "s3://"):
		return ErrInvalid.WrapMessage("the s3 backend requires an s3:// remote")
	}
	return nil
}

// Marshal the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write the configuration as a YAML file, creating its parent directory
func (c *Config) Write(path string) error {
	b, err := c.Marshal()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// DefaultPath is where "config create" writes the config file: $HOME/.stele/stele.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+Name, Name+".yaml"), nil
}
