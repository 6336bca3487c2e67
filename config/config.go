package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// RemoteConfig identifies the remote object store and tunes the adapter.
// Supplied once at construction and never mutated afterwards.
type RemoteConfig struct {
	BaseURL        string        `mapstructure:"baseURL"`
	Bucket         string        `mapstructure:"bucket"`
	Token          string        `mapstructure:"token"`
	CacheTTL       time.Duration `mapstructure:"cacheTTL"`
	MaxRetries     int           `mapstructure:"maxRetries"`
	RetryBackoff   time.Duration `mapstructure:"retryBackoff"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	UseMemory      bool          `mapstructure:"useMemory"`
}

// AuthConfig tunes session and password-recovery behaviour.
type AuthConfig struct {
	SessionTTL time.Duration `mapstructure:"sessionTTL"`
	OTPTTL     time.Duration `mapstructure:"otpTTL"`
}

type Config struct {
	Mode   string       `mapstructure:"mode"`
	Remote RemoteConfig `mapstructure:"remote"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Metrics struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// The remote store token is a credential; it comes from the environment,
	// never from a checked-in file.
	v.SetEnvPrefix("LMS")
	_ = v.BindEnv("remote.token", "LMS_REMOTE_TOKEN")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
