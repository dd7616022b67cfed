package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Platform  PlatformSettings  `mapstructure:"platform"`
	Forwarder ForwarderSettings `mapstructure:"forwarder"`
	Mirror    MirrorSettings    `mapstructure:"mirror"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection backing rate limits.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the event producer and the table change stream.
type KafkaSettings struct {
	Brokers           []string `mapstructure:"brokers"`
	TopicPrefix       string   `mapstructure:"topic_prefix"`
	Async             bool     `mapstructure:"async"`
	TableChangesTopic string   `mapstructure:"table_changes_topic"`
	ConsumerGroup     string   `mapstructure:"consumer_group"`
}

// PlatformSettings points at the hosted database platform: the auth API, the
// REST RPC endpoint, and the keys for both trust levels.
type PlatformSettings struct {
	URL            string `mapstructure:"url"`
	AnonKey        string `mapstructure:"anon_key"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
	JWTSecret      string `mapstructure:"jwt_secret"`
}

// ForwarderSettings configures the privileged forwarding endpoints: the URL
// the provisioning flow posts to (empty selects the direct fallback path)
// and the shared admin secret.
type ForwarderSettings struct {
	CreateUserURL string   `mapstructure:"create_user_url"`
	AdminSecret   string   `mapstructure:"admin_secret"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
}

// MirrorSettings tunes table mirrors.
type MirrorSettings struct {
	EventBuffer int `mapstructure:"event_buffer"`
	FetchLimit  int `mapstructure:"fetch_limit"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// RateLimitSettings configures sliding-window limits per endpoint.
type RateLimitSettings struct {
	WindowDuration        time.Duration `mapstructure:"window_duration"`
	CreateUserMaxAttempts int           `mapstructure:"create_user_max_attempts"`
	AdminMaxAttempts      int           `mapstructure:"admin_max_attempts"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CLUB")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"kafka.table_changes_topic",
		"kafka.consumer_group",
		"platform.url",
		"platform.anon_key",
		"platform.service_role_key",
		"platform.jwt_secret",
		"forwarder.create_user_url",
		"forwarder.admin_secret",
		"forwarder.cors_origins",
		"mirror.event_buffer",
		"mirror.fetch_limit",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.window_duration",
		"rate_limit.create_user_max_attempts",
		"rate_limit.admin_max_attempts",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "agrupacion-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 54321)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "club")
	v.SetDefault("postgres.password", "club_password")
	v.SetDefault("postgres.database", "club")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "club")
	v.SetDefault("kafka.async", true)
	v.SetDefault("kafka.table_changes_topic", "club.table_changes")
	v.SetDefault("kafka.consumer_group", "agrupacion-api")

	v.SetDefault("platform.url", "")
	v.SetDefault("platform.anon_key", "")
	v.SetDefault("platform.service_role_key", "")
	v.SetDefault("platform.jwt_secret", "")

	v.SetDefault("forwarder.create_user_url", "")
	v.SetDefault("forwarder.admin_secret", "")
	v.SetDefault("forwarder.cors_origins", []string{"http://localhost:3002"})

	v.SetDefault("mirror.event_buffer", 64)
	v.SetDefault("mirror.fetch_limit", 0)

	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "agrupacion-api")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.create_user_max_attempts", 10)
	v.SetDefault("rate_limit.admin_max_attempts", 5)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "CLUB_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
