package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/zebralog/zebralog/internal/config/hook"
)

type Config struct {
	Discord struct {
		Auth   string
		Guild  uint64
		Prefix string
	}

	Storage struct {
		Postgres bool
		DSN      string
		Host     string
		Port     uint16
		Name     string
		User     string
		Password string
	}

	Voice struct {
		Enabled  bool
		Auth     string
		Interval time.Duration
		Model    string
	}

	LLM struct {
		Auth string
	}

	Logging struct {
		Level zapcore.Level
	}

	Api struct {
		Port uint16
	}
}

// PostgresDSN resolves the storage credentials into a connection string,
// preferring an explicit DSN over the discrete fields.
func (c *Config) PostgresDSN() (string, error) {
	if !c.Storage.Postgres {
		return "", errors.New("postgres storage is disabled (storage.postgres)")
	}
	if c.Storage.DSN != "" {
		return c.Storage.DSN, nil
	}
	if c.Storage.Name == "" || c.Storage.User == "" {
		return "", errors.New("storage credentials incomplete: need storage.dsn or storage.name and storage.user")
	}
	host := c.Storage.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Storage.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.Storage.User, c.Storage.Password, host, port, c.Storage.Name), nil
}

func Read() (*Config, error) {
	v := viper.New()
	configureEnv(v)
	configureLocation(v)
	configureDefaults(v)
	return readUnmarshalConfig(v)
}

func configureEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("conf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func configureLocation(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
}

func configureDefaults(v *viper.Viper) {
	v.SetDefault("discord.prefix", "!")
	v.SetDefault("storage.postgres", true)
	v.SetDefault("voice.enabled", false)
	v.SetDefault("voice.interval", "30s")
	v.SetDefault("voice.model", "nova-2")
	v.SetDefault("logging.level", "info")
	v.SetDefault("api.port", 8080)
}

func readUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// env-only configuration is fine
	}
	c := &Config{}
	if err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		hook.Duration(), hook.Level(),
	))); err != nil {
		return nil, err
	}
	if c.Discord.Auth == "" {
		return nil, errors.New("discord.auth is not set")
	}
	return c, nil
}
