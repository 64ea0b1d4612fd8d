package env

import (
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppConfig AppConfig
}

type AppConfig struct {
	Name          string
	Env           string
	Source        string
	Port          uint
	LogFormat     string
	LogLevel      string
	SentryDSN     string
	MetricsPrefix string

	RpcURL         string
	RpcUser        string
	RpcPassword    string
	RpcTimeout     time.Duration
	RpcMaxAttempts uint
	RpcRateLimit   float64

	NatsDefaultURL string
	NatsStreamName string

	RedisAddress  string
	RedisDB       int
	RedisPoolSize int

	HandOffTTL       time.Duration
	HandOffCacheSize int

	UnlockTimeout time.Duration
}

var (
	cfg Config

	onceDefaultClient sync.Once
)

func defaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "zsign")
	v.SetDefault("ENV", "local")
	v.SetDefault("SOURCE", "local")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_FORMAT", "simple")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("METRICS_PREFIX", "zsign")
	v.SetDefault("RPC_URL", "http://127.0.0.1:45453")
	v.SetDefault("RPC_TIMEOUT", "2m")
	v.SetDefault("RPC_MAX_ATTEMPTS", 1)
	v.SetDefault("RPC_RATE_LIMIT", 0)
	v.SetDefault("NATS_STREAM_NAME", "ZSIGN")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("HANDOFF_TTL", "10m")
	v.SetDefault("HANDOFF_CACHE_SIZE", 125)
	v.SetDefault("UNLOCK_TIMEOUT", "5m")
}

// Read loads the .env file (or configPath) once and overlays the process
// environment. A missing file is not an error.
func Read(configPath string) (*Config, error) {
	var err error

	onceDefaultClient.Do(func() {
		v := viper.New()
		defaults(v)
		v.SetConfigType("env")

		if len(configPath) != 0 {
			v.SetConfigFile(configPath)
		} else {
			v.AddConfigPath(".")
			v.SetConfigFile(".env")
		}

		v.AutomaticEnv()
		if viperErr := v.ReadInConfig(); viperErr != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(viperErr, &notFound) && !errors.Is(viperErr, fs.ErrNotExist) {
				err = viperErr
				return
			}
		}

		cfg = Config{
			AppConfig: AppConfig{
				Name:          v.GetString("APP_NAME"),
				Env:           v.GetString("ENV"),
				Source:        v.GetString("SOURCE"),
				Port:          v.GetUint("PORT"),
				LogFormat:     v.GetString("LOG_FORMAT"),
				LogLevel:      v.GetString("LOG_LEVEL"),
				SentryDSN:     v.GetString("SENTRY_DSN"),
				MetricsPrefix: v.GetString("METRICS_PREFIX"),

				RpcURL:         v.GetString("RPC_URL"),
				RpcUser:        v.GetString("RPC_USER"),
				RpcPassword:    v.GetString("RPC_PASSWORD"),
				RpcTimeout:     v.GetDuration("RPC_TIMEOUT"),
				RpcMaxAttempts: v.GetUint("RPC_MAX_ATTEMPTS"),
				RpcRateLimit:   v.GetFloat64("RPC_RATE_LIMIT"),

				NatsDefaultURL: v.GetString("NATS_DEFAULT_URL"),
				NatsStreamName: v.GetString("NATS_STREAM_NAME"),

				RedisAddress:  v.GetString("REDIS_ADDRESS"),
				RedisDB:       v.GetInt("REDIS_DB"),
				RedisPoolSize: v.GetInt("REDIS_POOL_SIZE"),

				HandOffTTL:       v.GetDuration("HANDOFF_TTL"),
				HandOffCacheSize: v.GetInt("HANDOFF_CACHE_SIZE"),

				UnlockTimeout: v.GetDuration("UNLOCK_TIMEOUT"),
			},
		}
	})

	return &cfg, err
}
