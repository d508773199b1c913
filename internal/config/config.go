package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BroadcastLocal = "local"
	BroadcastRedis = "redis"
)

type Config struct {
	LogLevel      string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	SocketPort    string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3001"`
	AllowedOrigin string    `yaml:"allowed-origin" env:"ALLOWED_ORIGIN" env-default:"http://localhost:3000"`
	DefaultRoom   string    `yaml:"default-room" env:"DEFAULT_ROOM" env-default:"global"`
	Broadcast     Broadcast `yaml:"broadcast"`
	Redis         Redis     `yaml:"redis"`
}

type Broadcast struct {
	Driver string `yaml:"driver" env:"BROADCAST_DRIVER" env-default:"local"`
}

type Redis struct {
	Host          string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port          string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	ChannelPrefix string `yaml:"channel-prefix" env:"REDIS_CHANNEL_PREFIX" env-default:"tictactoe"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Broadcast.Driver {
	case BroadcastLocal, BroadcastRedis:
		return nil
	default:
		return fmt.Errorf("unknown broadcast driver %q", that.Broadcast.Driver)
	}
}

func (that *Config) UseRedis() bool {
	return that.Broadcast.Driver == BroadcastRedis
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
