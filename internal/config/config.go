// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env-required:"true"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	Telegram                `yaml:"telegram"`
	Sweep                   `yaml:"sweep"`
	HTTPServer              `yaml:"http_server"`
	AdminAPI                `yaml:"admin_api"`
}

// Telegram структура для настройки Telegram-бота
type Telegram struct {
	Token     string `yaml:"token" env:"BOT_TOKEN"`
	AdminID   int64  `yaml:"admin_id"`
	ChannelID int64  `yaml:"channel_id"`
	UPIID     string `yaml:"upi_id"`
	QRCodeURL string `yaml:"qr_code_url"`
}

// Sweep структура для настройки фоновой сверки подписок
type Sweep struct {
	Interval       time.Duration `yaml:"interval" env-default:"30m"`
	ReminderWindow time.Duration `yaml:"reminder_window" env-default:"72h"`
}

// RabbitMQ структура для настройки подключения к очереди уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// AdminAPI структура для настройки админского HTTP API
type AdminAPI struct {
	JWTSecretKey      string        `yaml:"jwt_secret_key"`
	TokenTTL          time.Duration `yaml:"token_ttl" env-default:"24h"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
}

// MustLoad функция для загрузки конфига, путь к файлу берется из переменной CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
