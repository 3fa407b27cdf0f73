package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultConfigPath = "config/config.yaml"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Host       string          `mapstructure:"host"`
	Port       string          `mapstructure:"port"`
	Endpoint   string          `mapstructure:"endpoint"`
	AuthSecret string          `mapstructure:"auth_secret"`
	ToastTTL   time.Duration   `mapstructure:"toast_ttl"`
	Websocket  WebsocketConfig `mapstructure:"websocket"`
}

type WebsocketConfig struct {
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type WalletConfig struct {
	KeystoreDir string `mapstructure:"keystore_dir"`
	DefaultRPC  string `mapstructure:"default_rpc"`
	AutoApprove bool   `mapstructure:"auto_approve"`
}

type TelemetryConfig struct {
	Enabled       bool                `mapstructure:"enabled"`
	ServiceName   string              `mapstructure:"service_name"`
	OTELCollector OTELCollectorConfig `mapstructure:"otel_collector"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type OTELCollectorConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type MetricsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.endpoint", "/api/v1")
	v.SetDefault("server.auth_secret", "")
	v.SetDefault("server.toast_ttl", 3*time.Second)
	v.SetDefault("server.websocket.write_wait", 10*time.Second)
	v.SetDefault("server.websocket.pong_wait", 60*time.Second)
	v.SetDefault("server.websocket.max_message_size", 512)

	v.SetDefault("wallet.keystore_dir", "")
	v.SetDefault("wallet.default_rpc", "https://cloudflare-eth.com")
	v.SetDefault("wallet.auto_approve", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "vecstake")
	v.SetDefault("telemetry.otel_collector.host", "localhost")
	v.SetDefault("telemetry.otel_collector.port", 4317)
	v.SetDefault("telemetry.metrics.interval", 15*time.Second)
}

// LoadConfig reads the config file at path. A missing file is not an error:
// defaults and VECSTAKE_* environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VECSTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if config.Server.ToastTTL <= 0 {
		config.Server.ToastTTL = 3 * time.Second
	}

	return &config, nil
}

// Addr returns the listen address of the dashboard server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}
