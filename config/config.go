package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderSettings holds the OAuth2 client settings for one federated
// provider.
type ProviderSettings struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

// RateLimitSettings is one endpoint's fixed-window threshold.
type RateLimitSettings struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// Window returns the configured window as a duration.
func (r RateLimitSettings) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// ServerConfig holds all configuration for the server. It is constructed once
// at startup and passed by reference; no package carries ambient config
// state.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"http_port"`
	MongoURI    string `mapstructure:"mongo_uri"`
	MongoDBName string `mapstructure:"mongo_db_name"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db"`
	LogLevel    string `mapstructure:"log_level"`
	LogPretty   bool   `mapstructure:"log_pretty"`

	JWTSecretKey      string `mapstructure:"jwt_secret_key"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`

	Google ProviderSettings `mapstructure:"google"`
	Kakao  ProviderSettings `mapstructure:"kakao"`

	RateLimitLogin          RateLimitSettings `mapstructure:"ratelimit_login"`
	RateLimitFederatedStart RateLimitSettings `mapstructure:"ratelimit_federated_start"`
	RateLimitCallback       RateLimitSettings `mapstructure:"ratelimit_callback"`
	RateLimitLogout         RateLimitSettings `mapstructure:"ratelimit_logout"`
}

// AccessTokenTTL returns the token lifetime as a duration.
func (c *ServerConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// LoadConfig reads configuration from file, environment variables, and
// defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/boardauth/")
	v.AddConfigPath("$HOME/.boardauth")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("http_port", "8080")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017/boardauth_dev")
	v.SetDefault("mongo_db_name", "boardauth_dev")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
	v.SetDefault("jwt_secret_key", "a_very_secret_jwt_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("access_token_ttl_min", 30)
	// Nested keys must be registered for AutomaticEnv to pick them up
	// (GOOGLE_CLIENT_ID and friends are invisible to Unmarshal otherwise).
	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_uri", "")
	v.SetDefault("kakao.client_id", "")
	v.SetDefault("kakao.client_secret", "")
	v.SetDefault("kakao.redirect_uri", "")
	v.SetDefault("ratelimit_login.limit", 5)
	v.SetDefault("ratelimit_login.window_seconds", 60)
	v.SetDefault("ratelimit_federated_start.limit", 5)
	v.SetDefault("ratelimit_federated_start.window_seconds", 60)
	v.SetDefault("ratelimit_callback.limit", 5)
	v.SetDefault("ratelimit_callback.window_seconds", 60)
	v.SetDefault("ratelimit_logout.limit", 10)
	v.SetDefault("ratelimit_logout.window_seconds", 60)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
