// Package config loads the provider's runtime configuration the way
// the teacher loads its node configuration: a YAML file located by
// flag or environment variable, parsed with cleanenv, panicking on any
// failure since there is no sensible way to run without it.
package config

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds every option spec §6 recognizes for wiring a provider.
type Config struct {
	Env string `yaml:"env" env:"ENV" env-default:"local"`

	GuildID           string        `yaml:"guildId" env:"GUILD_ID"`
	DbChannelName     string        `yaml:"dbChannelName" env:"DB_CHANNEL_NAME" env-default:"fs-db"`
	DataChannelName   string        `yaml:"dataChannelName" env:"DATA_CHANNEL_NAME" env-default:"fs-data"`
	LocalPath         string        `yaml:"localPath" env:"LOCAL_PATH"`
	EncryptionKey     string        `yaml:"encryptionKey" env:"ENCRYPTION_KEY"`
	MaxAttachmentSize int           `yaml:"maxAttachmentSize" env:"MAX_ATTACHMENT_SIZE" env-default:"8388608"`
	ResyncPeriod      time.Duration `yaml:"resyncPeriod" env:"RESYNC_PERIOD" env-default:"3m"`
}

// encryptionKeySize is the AES-256-GCM key length spec §6 mandates.
const encryptionKeySize = 32

// DecodedEncryptionKey base64-decodes EncryptionKey and validates its
// length, returning nil if EncryptionKey is unset (encryption disabled).
func (c *Config) DecodedEncryptionKey() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("config: decode encryptionKey: %w", err)
	}
	if len(key) != encryptionKeySize {
		return nil, fmt.Errorf("config: encryptionKey must decode to %d bytes, got %d", encryptionKeySize, len(key))
	}
	return key, nil
}

// MustLoad locates the config file via -config or CONFIG_PATH and
// loads it, panicking if either step fails.
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}
	return MustLoadConfig(configPath)
}

// MustLoadConfig loads configPath directly, bypassing flag/env lookup.
func MustLoadConfig(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

// Priority: flag > env > default (empty string).
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
