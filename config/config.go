// Package config provides YAML-based configuration loading for the
// xdao-dagcbor daemon and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"xdao.co/dagcbor/bridge"
	"xdao.co/dagcbor/storage/casconfig"
	"xdao.co/dagcbor/translate"
)

// EnvPrefix prefixes environment overrides, e.g. XDAO_DAGCBOR_LOG_LEVEL=debug.
const EnvPrefix = "XDAO_DAGCBOR"

// Config is the root configuration.
type Config struct {
	// Listen is the gRPC listen address.
	Listen string `mapstructure:"listen"`

	// MaxMsgBytes caps gRPC messages (send and receive). 0 keeps grpc defaults.
	MaxMsgBytes int `mapstructure:"max_msg_bytes"`

	Log   LogConfig   `mapstructure:"log"`
	Codec CodecConfig `mapstructure:"codec"`

	// Storage selects block store backends. Empty means an in-process store.
	Storage casconfig.Config `mapstructure:"storage"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CodecConfig mirrors bridge.Options.
type CodecConfig struct {
	// ImplicitLinks promotes any identifier-shaped string to a link.
	ImplicitLinks bool `mapstructure:"implicit_links"`
	// ReservedLinkFields are the keys whose identifier values get wrapped as {TagKey: link}.
	ReservedLinkFields []string `mapstructure:"reserved_link_fields"`
	TagKey             string   `mapstructure:"tag_key"`
	RejectLossyNumbers bool     `mapstructure:"reject_lossy_numbers"`
	// Indent pretty-prints decoded JSON when non-empty.
	Indent string `mapstructure:"indent"`
}

// Options converts the codec section into converter options.
func (c CodecConfig) Options() bridge.Options {
	return bridge.Options{
		Translator: translate.Translator{
			Policy:               translate.FieldPolicy{Reserved: c.ReservedLinkFields},
			DisableImplicitLinks: !c.ImplicitLinks,
			TagKey:               c.TagKey,
		},
		RejectLossyNumbers: c.RejectLossyNumbers,
		Indent:             c.Indent,
	}
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:7480",
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/xdao-dagcbord.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Codec: CodecConfig{
			ImplicitLinks:      true,
			ReservedLinkFields: []string{translate.ReservedLinkField},
			TagKey:             translate.DefaultTagKey,
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise from
// $XDAO_DAGCBOR_CONFIG or a dagcbor.yaml in ., ./configs or
// ~/.xdao-dagcbor. A missing file is not an error. Environment variables
// override file values; "." and "-" in keys become "_".
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("max_msg_bytes", cfg.MaxMsgBytes)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("codec.implicit_links", cfg.Codec.ImplicitLinks)
	v.SetDefault("codec.reserved_link_fields", cfg.Codec.ReservedLinkFields)
	v.SetDefault("codec.tag_key", cfg.Codec.TagKey)
	v.SetDefault("codec.reject_lossy_numbers", cfg.Codec.RejectLossyNumbers)
	v.SetDefault("codec.indent", cfg.Codec.Indent)
	v.SetDefault("storage.write_policy", "")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dagcbor")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".xdao-dagcbor"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("listen address is required")
	}
	if c.MaxMsgBytes < 0 {
		return fmt.Errorf("invalid max_msg_bytes: %d", c.MaxMsgBytes)
	}
	if c.Codec.TagKey == "" {
		c.Codec.TagKey = translate.DefaultTagKey
	}
	if len(c.Storage.Backends) > 0 {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}
