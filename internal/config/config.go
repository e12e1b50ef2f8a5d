package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"

	PlaceholderBotToken = "YOUR_BOT_TOKEN"
	PlaceholderChatID   = "YOUR_CHAT_ID"
)

type Config struct {
	LogLevel   string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Storage    string        `yaml:"storage" env:"STORAGE" env-default:"memory"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"1h"`
	Redis      Redis         `yaml:"redis"`
	Telegram   Telegram      `yaml:"telegram"`
	Opponent   Opponent      `yaml:"opponent"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Telegram struct {
	BotToken string        `yaml:"bot-token" env:"TELEGRAM_BOT_TOKEN" env-default:"YOUR_BOT_TOKEN"`
	ChatID   string        `yaml:"chat-id" env:"TELEGRAM_CHAT_ID" env-default:"YOUR_CHAT_ID"`
	APIURL   string        `yaml:"api-url" env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org"`
	Timeout  time.Duration `yaml:"timeout" env:"TELEGRAM_TIMEOUT" env-default:"10s"`
}

type Opponent struct {
	// Delay is how long the computer "thinks" before answering a move.
	Delay time.Duration `yaml:"delay" env:"OPPONENT_DELAY" env-default:"500ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if config.Storage != StorageMemory && config.Storage != StorageRedis {
		panic(fmt.Errorf("unknown storage %q", config.Storage))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// IsConfigured - false while either credential still holds its placeholder.
func (that *Telegram) IsConfigured() bool {
	return that.BotToken != PlaceholderBotToken && that.ChatID != PlaceholderChatID
}
