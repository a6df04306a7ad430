package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wieeerzbickim/community-feast/pkg/utils"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Postgres PG       `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Payment  Payment  `yaml:"payment"`
	Storage  Storage  `yaml:"storage"`
	Platform Platform `yaml:"platform"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"market-core-group"`
}

type Payment struct {
	BaseURL    string        `yaml:"base_url" env:"PAYMENT_BASE_URL"`
	APIKey     string        `yaml:"api_key" env:"PAYMENT_API_KEY"`
	Timeout    time.Duration `yaml:"timeout" env-default:"3s"`
	SuccessURL string        `yaml:"success_url" env:"PAYMENT_SUCCESS_URL"`
	CancelURL  string        `yaml:"cancel_url" env:"PAYMENT_CANCEL_URL"`
}

type Storage struct {
	BaseURL   string `yaml:"base_url" env:"STORAGE_BASE_URL"`
	PublicURL string `yaml:"public_url" env:"STORAGE_PUBLIC_URL"`
	APIKey    string `yaml:"api_key" env:"STORAGE_API_KEY"`
}

type Platform struct {
	// Fallback commission rate (percent) used until an admin sets one.
	DefaultCommissionRate string `yaml:"default_commission_rate" env:"DEFAULT_COMMISSION_RATE" env-default:"10"`
	JWTSecret             string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

func MustLoad() *Config {
	configPath := utils.EnvOr("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
