package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	OpenRouter OpenRouterConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Address string
	Env     string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

type JWTConfig struct {
	Secret string
}

// OpenRouterConfig 是上游聊天補全服務的設定
// BaseURL 需包含 /v1 前綴，任何 OpenAI 相容端點皆可
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxTokens    int
	Temperature  float64
}

type RedisConfig struct {
	Addr     string
	Password string
}

// RateLimitConfig 控制聊天訊息端點的固定窗口限流
// Addr 未設定時限流會整組停用
type RateLimitConfig struct {
	Limit         int
	WindowSeconds int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./pkg/config")

	viper.SetEnvPrefix("blogpulse")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// 找不到配置文件時退回預設值與環境變量
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.env", "dev")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.name", "blogpulse")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("jwt.secret", "")
	// 沒有預設值的鍵也要註冊，AutomaticEnv 才能把環境變量帶進 Unmarshal
	viper.SetDefault("openrouter.apikey", "")
	viper.SetDefault("openrouter.baseurl", "https://openrouter.ai/api/v1")
	viper.SetDefault("openrouter.defaultmodel", "openai/gpt-3.5-turbo")
	viper.SetDefault("openrouter.maxtokens", 4000)
	viper.SetDefault("openrouter.temperature", 0.7)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("ratelimit.limit", 10)
	viper.SetDefault("ratelimit.windowseconds", 60)
}
