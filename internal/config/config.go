package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env-default:"local"`
	StoragePath string `yaml:"storage_path" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env-default:"localhost:6379"`
	BookingMode string `yaml:"booking_mode" env-default:"strict"`
	HTTPServer  `yaml:"http_server"`
	StatusSync  `yaml:"status_sync"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type StatusSync struct {
	DailyAt      string        `yaml:"daily_at" env-default:"03:00"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"10m"`
	BatchSize    int           `yaml:"batch_size" env-default:"500"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env-default:"2s"`
	WebhookURL   string        `yaml:"webhook_url"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
