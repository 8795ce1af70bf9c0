// Package config описывает настройки сервиса и загружает их из YAML
// с переопределением секретов через переменные окружения.
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
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	AdminAuth               `yaml:"admin_auth"`
	Secrets                 `yaml:"secrets"`
	AdminCache              `yaml:"admin_cache"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	Telegram                `yaml:"telegram"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// InsecureCookie снимает флаг Secure с cookie admin_token (локальная разработка по http).
	InsecureCookie bool `yaml:"insecure_cookie"`
}

// AdminAuth настройки токена администратора.
type AdminAuth struct {
	JWTSecretKey   string        `yaml:"jwt_secret_key" env:"ADMIN_JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl" env-default:"168h"`
	LoginRateLimit float64       `yaml:"login_rate_limit" env-default:"1"`
	LoginBurst     int           `yaml:"login_burst" env-default:"5"`
}

// Secrets общие секреты внешних вызовов.
type Secrets struct {
	CronSecret           string `yaml:"cron_secret" env:"CRON_SECRET"`
	PaymentWebhookSecret string `yaml:"payment_webhook_secret" env:"PAYMENT_WEBHOOK_SECRET"`
}

// AdminCache настройки кеша админки.
type AdminCache struct {
	// Backend: memory (кеш процесса) или redis.
	Backend         string        `yaml:"backend" env-default:"memory"`
	DefaultTTL      time.Duration `yaml:"default_ttl" env-default:"30s"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env-default:"5m"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ настройки очереди рассылок.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
	SenderConcurrency  int           `yaml:"sender_concurrency" env-default:"10"`
}

// Telegram настройки Bot API.
type Telegram struct {
	BotToken      string        `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	APIURL        string        `yaml:"api_url" env-default:"https://api.telegram.org"`
	WebhookSecret string        `yaml:"webhook_secret" env:"TELEGRAM_WEBHOOK_SECRET"`
	AutoReplyText string        `yaml:"auto_reply_text" env-default:"Спасибо за сообщение! Специалист ответит в ближайшее время."`
	InitDataTTL   time.Duration `yaml:"init_data_ttl" env-default:"24h"`
	Timeout       time.Duration `yaml:"timeout" env-default:"10s"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH, завершая процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из path и применяет переменные окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// String печатает конфиг для отладки, скрывая секреты.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"AdminAuth:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"AdminCache:\n"+
			"  Backend: %s\n"+
			"  DefaultTTL: %s\n"+
			"  CleanupInterval: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ: %s\n"+
			"Telegram:\n"+
			"  APIURL: %s\n"+
			"  BotToken: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		c.Backend,
		c.DefaultTTL,
		c.CleanupInterval,
		c.AddressRedis,
		mask(c.RabbitMQURL),
		c.APIURL,
		mask(c.BotToken),
	)
}

func mask(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "***"
}
