package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Token string `mapstructure:"token"`
}

type ServerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	WSURL   string `mapstructure:"ws_url"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr   string `mapstructure:"addr"`
	Pass   string `mapstructure:"password"`
	DB     int    `mapstructure:"db"`
	Prefix string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	TopicInbound string   `mapstructure:"topic_inbound"`
}

type EngineConfig struct {
	TypingQuietMillis  int `mapstructure:"typing_quiet_millis"`
	CallTeardownMillis int `mapstructure:"call_teardown_millis"`
	RequestTimeoutSecs int `mapstructure:"request_timeout_seconds"`

	// derived
	TypingQuiet    time.Duration
	CallTeardown   time.Duration
	RequestTimeout time.Duration
}

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	NATS   NATSConfig   `mapstructure:"nats"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Engine EngineConfig `mapstructure:"engine"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	v.SetDefault("app.env", "production")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.ws_url", "ws://localhost:8080/ws")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("redis.prefix", "chatclient")
	v.SetDefault("engine.typing_quiet_millis", 2000)
	v.SetDefault("engine.call_teardown_millis", 1500)
	v.SetDefault("engine.request_timeout_seconds", 10)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}

	c.Engine.TypingQuiet = time.Duration(c.Engine.TypingQuietMillis) * time.Millisecond
	c.Engine.CallTeardown = time.Duration(c.Engine.CallTeardownMillis) * time.Millisecond
	c.Engine.RequestTimeout = time.Duration(c.Engine.RequestTimeoutSecs) * time.Second
	return &c, nil
}
