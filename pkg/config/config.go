package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/vault-client-go"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var v = viper.New()

type Config struct {
	AppEnv  string `mapstructure:"APP_ENV"`
	AppName string `mapstructure:"APP_NAME"`

	TLS struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`

	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`

	Database struct {
		Type          string `mapstructure:"TYPE"` // sqlite | postgres | mysql
		Path          string `mapstructure:"PATH"` // sqlite only
		BusyTimeoutMS int    `mapstructure:"BUSY_TIMEOUT_MS"`
		Host          string `mapstructure:"HOST"`
		Port          string `mapstructure:"PORT"`
		DBName        string `mapstructure:"DBNAME"`
		User          string `mapstructure:"USER"`
		Password      string `mapstructure:"PASSWORD"`
		SSLMode       string `mapstructure:"SSLMODE"`
		Metrics       bool   `mapstructure:"METRICS"`
		Tracing       bool   `mapstructure:"TRACING"`

		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`

	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`

	Auth struct {
		MaxClockSkewSeconds int64         `mapstructure:"MAX_CLOCK_SKEW_SECONDS"`
		NonceTTLSeconds     int64         `mapstructure:"NONCE_TTL_SECONDS"`
		TokenTTL            time.Duration `mapstructure:"TOKEN_TTL"`
	} `mapstructure:"AUTH"`

	Login struct {
		MaxFails    int `mapstructure:"MAX_FAILS"`
		LockSeconds int `mapstructure:"LOCK_SECONDS"`
	} `mapstructure:"LOGIN_LIMIT"`

	Bootstrap struct {
		AdminUser string `mapstructure:"ADMIN_USER"`
		AdminPass string `mapstructure:"ADMIN_PASS"`
	} `mapstructure:"BOOTSTRAP"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Params struct {
	fx.In
	Vault *vault.Client `optional:"true"`
}

func setDefaults() {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "hotspot-voucherd")
	v.SetDefault("HTTP_SERVER.ADDR", ":8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("DATABASE.TYPE", "sqlite")
	v.SetDefault("DATABASE.PATH", "vouchers.db")
	v.SetDefault("DATABASE.BUSY_TIMEOUT_MS", 5000)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_IDLE_CONN", 2)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_OPEN_CONNS", 10)
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("AUTH.MAX_CLOCK_SKEW_SECONDS", 300)
	v.SetDefault("AUTH.NONCE_TTL_SECONDS", 600)
	v.SetDefault("AUTH.TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("LOGIN_LIMIT.MAX_FAILS", 6)
	v.SetDefault("LOGIN_LIMIT.LOCK_SECONDS", 300)
	v.SetDefault("BOOTSTRAP.ADMIN_USER", "admin")
}

func LoadConfig(p Params) (*Config, error) {
	setDefaults()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if p.Vault != nil {
		// START - Vault
		client := p.Vault
		ctx := context.Background()

		zap.L().Info("Starting Get Secrets", zap.String("path", cfg.AppEnv))
		secret, err := client.Secrets.KvV2Read(ctx, cfg.AppEnv, vault.WithMountPath("secret"))
		if err != nil {
			zap.L().Error("failed get secret from vault", zap.Error(err))
			return nil, err
		}
		zap.L().Info("Success Get Secret")

		get := func(key string) string {
			if val, ok := secret.Data.Data[key].(string); ok {
				return val
			}
			return ""
		}

		if pw := get("database_password"); pw != "" {
			cfg.Database.Password = pw
		}
		if pw := get("redis_password"); pw != "" {
			cfg.Redis.Password = pw
		}
		if pw := get("bootstrap_admin_pass"); pw != "" {
			cfg.Bootstrap.AdminPass = pw
		}
		// END - Vault
	}

	return &cfg, nil
}
