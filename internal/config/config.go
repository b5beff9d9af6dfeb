package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wxinsight/internal/models"
)

var (
	instance *Config
	once     sync.Once
	validate = validator.New()
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"server"`
	Collector struct {
		Interval          time.Duration `yaml:"interval" validate:"gte=1m"`
		ForecastDays      int           `yaml:"forecast_days" validate:"oneof=7 14"`
		Workers           int           `yaml:"workers" validate:"gte=1,lte=32"`
		RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gt=0"`
		Burst             int           `yaml:"burst" validate:"gte=1"`
	} `yaml:"collector"`
	AI struct {
		URL        string        `yaml:"url" validate:"omitempty,url"`
		Timeout    time.Duration `yaml:"timeout"`
		Highlights int           `yaml:"highlights" validate:"gte=0,lte=10"`
	} `yaml:"ai"`
	Alerts struct {
		AckTTL time.Duration `yaml:"ack_ttl"`
	} `yaml:"alerts"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
	} `yaml:"redis"`
	Locations []models.Location `yaml:"locations" validate:"required,min=1,dive"`
}

// LoadEnv reads a .env file into the environment when one is present
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = defaults()

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file %s: %w", configPath, readErr)
			return
		}

		if parseErr := yaml.Unmarshal(data, instance); parseErr != nil {
			err = fmt.Errorf("failed to parse config: %w", parseErr)
			return
		}

		if validateErr := instance.validate(); validateErr != nil {
			err = validateErr
			return
		}
	})

	return instance, err
}

func defaults() *Config {
	c := &Config{}
	c.Server.Addr = ":8080"
	c.Collector.Interval = time.Hour
	c.Collector.ForecastDays = 7
	c.Collector.Workers = 4
	c.Collector.RequestsPerSecond = 5
	c.Collector.Burst = 2
	c.AI.Timeout = 30 * time.Second
	c.AI.Highlights = 3
	c.Alerts.AckTTL = 7 * 24 * time.Hour
	return c
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RedisConfig merges the yaml redis block over the environment settings
func (c *Config) RedisConfig() RedisConfig {
	cfg := GetRedisConfig()
	if c.Redis.Addr != "" {
		cfg.Addr = c.Redis.Addr
	}
	if c.Redis.Password != "" {
		cfg.Password = c.Redis.Password
	}
	if c.Redis.DB != 0 {
		cfg.DB = c.Redis.DB
	}
	if c.Redis.Stream != "" {
		cfg.Stream = c.Redis.Stream
	}
	return cfg
}
