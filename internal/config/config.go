// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string          `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string          `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string          `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	BotAPIKeyHash           string          `yaml:"bot_api_key_hash" env:"BOT_API_KEY_HASH"`
	HTTPServer              HTTPServer      `yaml:"http_server"`
	Redis                   RedisConnection `yaml:"redis"`
	RabbitMQ                RabbitMQ        `yaml:"rabbitmq"`
	JWT                     JWTToken        `yaml:"jwt"`
	Telegram                Telegram        `yaml:"telegram"`
	Discord                 Discord         `yaml:"discord"`
	NOWPayments             NOWPayments     `yaml:"nowpayments"`
	Scheduler               Scheduler       `yaml:"scheduler"`
	Admin                   Admin           `yaml:"admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
}

// RabbitMQ структура для настройки очереди уведомлений
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"10"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном админской сессии
type JWTToken struct {
	SecretKey string        `yaml:"secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL  time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Telegram настройки бота
type Telegram struct {
	BotToken      string  `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	WebhookSecret string  `yaml:"webhook_secret" env:"TELEGRAM_WEBHOOK_SECRET"`
	RateLimit     float64 `yaml:"rate_limit" env-default:"25"`
	// WebhookURL публичный адрес /telegram/webhook, пустой отключает регистрацию вебхука.
	WebhookURL string `yaml:"webhook_url" env:"TELEGRAM_WEBHOOK_URL"`
	// BroadcastDelay пауза между сообщениями рассылки.
	BroadcastDelay time.Duration `yaml:"broadcast_delay" env-default:"100ms"`
}

// Discord настройки REST-клиента Discord
type Discord struct {
	BotToken string `yaml:"bot_token" env:"DISCORD_BOT_TOKEN"`
	GuildID  string `yaml:"guild_id" env:"DISCORD_GUILD_ID"`
	APIURL   string `yaml:"api_url" env-default:"https://discord.com/api/v10"`
}

// NOWPayments настройки платёжного провайдера
type NOWPayments struct {
	APIKey         string `yaml:"api_key" env:"NOWPAYMENTS_API_KEY"`
	IPNSecret      string `yaml:"ipn_secret" env:"NOWPAYMENTS_IPN_SECRET"`
	APIURL         string `yaml:"api_url" env-default:"https://api.nowpayments.io/v1"`
	IPNCallbackURL string `yaml:"ipn_callback_url"`
	SuccessURL     string `yaml:"success_url"`
	CancelURL      string `yaml:"cancel_url"`
}

// Scheduler настройки планировщика жизненного цикла подписок
type Scheduler struct {
	Schedule string `yaml:"schedule" env:"SCHEDULER_SCHEDULE" env-default:"0 10 * * *"`
	Timezone string `yaml:"timezone" env:"SCHEDULER_TIMEZONE" env-default:"Europe/Moscow"`
	// Dispatch: direct: уведомления обрабатываются в процессе планировщика,
	// rabbitmq: публикуются в очередь для cmd/notifier.
	Dispatch string `yaml:"dispatch" env:"SCHEDULER_DISPATCH" env-default:"direct"`
}

// Admin настройки входа в админку
type Admin struct {
	LoginTTL        time.Duration `yaml:"login_ttl" env-default:"5m"`
	RateLimit       int           `yaml:"rate_limit" env-default:"10"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window" env-default:"1m"`
	CookieSecure    bool          `yaml:"cookie_secure" env-default:"true"`
}

// Location возвращает часовой пояс планировщика.
func (s Scheduler) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла и переменных окружения.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	switch cfg.Scheduler.Dispatch {
	case "direct", "rabbitmq":
	default:
		return nil, fmt.Errorf("unknown scheduler dispatch %q", cfg.Scheduler.Dispatch)
	}
	return &cfg, nil
}
