package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is read once at startup and handed to each component explicitly.
type Config struct {
	Port          string        `mapstructure:"port"`
	AllowedOrigin string        `mapstructure:"allowed_origin"`
	FrontendURL   string        `mapstructure:"frontend_url"`
	RoutePrefix   string        `mapstructure:"route_prefix"`
	ServiceName   string        `mapstructure:"service_name"`
	OTLPEndpoint  string        `mapstructure:"otel_exporter_otlp_endpoint"`

	GatewayConfig `mapstructure:",squash"`
	StoreConfig   `mapstructure:",squash"`
	KafkaConfig   `mapstructure:",squash"`
}

type GatewayConfig struct {
	SecretKey string        `mapstructure:"paystack_secret_key"`
	BaseURL   string        `mapstructure:"paystack_base_url"`
	Timeout   time.Duration `mapstructure:"gateway_timeout"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"transaction_store"`
	RedisAddr   string `mapstructure:"redis_addr"`
	DatabaseURL string `mapstructure:"database_url"`
}

type KafkaConfig struct {
	Broker  string `mapstructure:"kafka_broker"`
	Topic   string `mapstructure:"kafka_topic"`
	GroupID string `mapstructure:"kafka_group_id"`
}

var defaults = map[string]any{
	"port":                        "3000",
	"allowed_origin":              "*",
	"frontend_url":                "",
	"route_prefix":                "/api/payment",
	"service_name":                "payment-api",
	"otel_exporter_otlp_endpoint": "localhost:4317",
	"paystack_secret_key":         "",
	"paystack_base_url":           "https://api.paystack.co",
	"gateway_timeout":             "10s",
	"transaction_store":           "memory",
	"redis_addr":                  "localhost:6379",
	"database_url":                "",
	"kafka_broker":                "",
	"kafka_topic":                 "payment-events",
	"kafka_group_id":              "payment-events-audit",
}

// Load reads configuration from the process environment. Keys are the
// upper-cased mapstructure names, e.g. PAYSTACK_SECRET_KEY or PORT.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// DefaultCallbackURL is where the redirect flow sends payers when the
// request does not name a callback of its own.
func (c *Config) DefaultCallbackURL() string {
	if c.FrontendURL == "" {
		return ""
	}
	return c.FrontendURL + "/callback.html"
}
