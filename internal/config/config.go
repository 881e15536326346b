package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Payment    PaymentConfig    `yaml:"payment"`
	Site       SiteConfig       `yaml:"site"`
	Media      MediaConfig      `yaml:"media"`
	Checkout   CheckoutConfig   `yaml:"checkout"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
}

// RedisConfig - хранилище данных доставки между оформлением и оплатой
type RedisConfig struct {
	Address  string `yaml:"address" env-default:"localhost:6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// PaymentConfig - платёжный процессор; provider: stripe или fake
type PaymentConfig struct {
	Provider  string        `yaml:"provider" env-default:"stripe"`
	BaseURL   string        `yaml:"base_url" env-default:"https://api.stripe.com"`
	SecretKey string        `yaml:"-" env:"STRIPE_SECRET_KEY"`
	Currency  string        `yaml:"currency" env-default:"bdt"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
}

// SiteConfig - абсолютный адрес сайта для ссылок возврата после оплаты
type SiteConfig struct {
	BaseURL   string `yaml:"base_url" env-default:"http://127.0.0.1:8080"`
	LoginPath string `yaml:"login_path" env-default:"/login"`
}

type MediaConfig struct {
	Dir         string `yaml:"dir" env-default:"./media"`
	MaxUploadMB int64  `yaml:"max_upload_mb" env-default:"20"`
}

type CheckoutConfig struct {
	DeliveryTTL time.Duration `yaml:"delivery_ttl" env-default:"30m"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	if f := flag.Lookup("config"); f != nil {
		path = f.Value.String()
	} else {
		flag.StringVar(&path, "config", "", "path to config file")
		flag.Parse()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	if cfg.Payment.Provider == "stripe" && cfg.Payment.SecretKey == "" {
		log.Fatal("STRIPE_SECRET_KEY is required for the stripe payment provider")
	}

	return &cfg
}
