package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Gateways   GatewaysConfig   `mapstructure:"gateways"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Events     EventsConfig     `mapstructure:"events"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GatewaysConfig holds per-provider credentials and endpoints.
type GatewaysConfig struct {
	CardGate CardGateConfig `mapstructure:"cardgate"`
	PayWave  PayWaveConfig  `mapstructure:"paywave"`
	// Timeout bounds every outbound provider call. No automatic retry with
	// side effects: only read-only verify calls are retried.
	Timeout time.Duration `mapstructure:"timeout"`
}

type CardGateConfig struct {
	MerchantCode string `mapstructure:"merchant_code"`
	HashSecret   string `mapstructure:"hash_secret"`
	PayURL       string `mapstructure:"pay_url"`
	QueryURL     string `mapstructure:"query_url"`
	RefundURL    string `mapstructure:"refund_url"`
}

type PayWaveConfig struct {
	AppID      string `mapstructure:"app_id"`
	PartnerKey string `mapstructure:"partner_key"` // HMAC secret for notifications
	SigningKey string `mapstructure:"signing_key"` // JWT client assertion key
	BaseURL    string `mapstructure:"base_url"`
}

type SettlementConfig struct {
	// ReconcileMaxAge: PENDING transactions older than this are re-verified.
	ReconcileMaxAge time.Duration `mapstructure:"reconcile_max_age"`
	// SweepInterval: period of the reconcile and subscription-expiry jobs.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepLimit    int           `mapstructure:"sweep_limit"`
	ReturnBaseURL string        `mapstructure:"return_base_url"` // user redirect targets
	NotifyBaseURL string        `mapstructure:"notify_base_url"` // provider webhook targets
}

type EventsConfig struct {
	SinkURL       string `mapstructure:"sink_url"`
	SigningSecret string `mapstructure:"signing_secret"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PPS (PeerPay Settlement).
// Nested keys use underscore: PPS_DATABASE_HOST, PPS_GATEWAYS_PAYWAVE_APP_ID.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "peerpay")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("gateways.timeout", "10s")
	v.SetDefault("gateways.cardgate.pay_url", "https://sandbox.cardgate.example/paygate")
	v.SetDefault("gateways.cardgate.query_url", "https://sandbox.cardgate.example/query")
	v.SetDefault("gateways.cardgate.refund_url", "https://sandbox.cardgate.example/refund")
	v.SetDefault("gateways.paywave.base_url", "https://sandbox.paywave.example/v2")
	v.SetDefault("settlement.reconcile_max_age", "15m")
	v.SetDefault("settlement.sweep_interval", "5m")
	v.SetDefault("settlement.sweep_limit", 100)
	v.SetDefault("settlement.return_base_url", "http://localhost:8080")
	v.SetDefault("settlement.notify_base_url", "http://localhost:8080")
	v.SetDefault("events.sink_url", "")
	v.SetDefault("events.signing_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can carry everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
