package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"urlshorten/internal/model"
)

// EnvPrefix 环境变量前缀，例如 SHORTEN_DB_DRIVER
const EnvPrefix = "SHORTEN_"

// 主配置结构
type Config struct {
	App       App       `yaml:"app" envPrefix:"APP_"`
	Server    Server    `yaml:"server" envPrefix:"SERVER_"`
	Database  DB        `yaml:"database" envPrefix:"DB_"`
	Cache     Cache     `yaml:"cache" envPrefix:"REDIS_"`
	Auth      Auth      `yaml:"auth" envPrefix:"AUTH_"`
	RateLimit Limit     `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Shortener Shortener `yaml:"shortener" envPrefix:"SHORTENER_"`
	Log       Log       `yaml:"log" envPrefix:"LOG_"`
}

// 应用配置
type App struct {
	Name    string `yaml:"name" env:"NAME"`
	Mode    string `yaml:"mode" env:"MODE"`
	Version string `yaml:"version" env:"VERSION"`
	// BaseURL 生成短链接时使用的前缀
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

// 服务器配置，超时单位为秒
type Server struct {
	Port            int `yaml:"port" env:"PORT"`
	ReadTimeout     int `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    int `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout int `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// 数据库配置
type DB struct {
	// Driver 可选 mysql、sqlite、postgres
	Driver   string `yaml:"driver" env:"DRIVER"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	Charset  string `yaml:"charset" env:"CHARSET"`
	// DSN 非空时优先使用。sqlite 为文件路径，postgres 为连接串
	DSN          string `yaml:"dsn" env:"DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
}

// 缓存配置（Redis），Host 为空表示不启用
type Cache struct {
	Host       string `yaml:"host" env:"HOST"`
	Port       int    `yaml:"port" env:"PORT"`
	Password   string `yaml:"password" env:"PASSWORD"`
	DB         int    `yaml:"db" env:"DB"`
	TTLMinutes int    `yaml:"ttl_minutes" env:"TTL_MINUTES"`
}

// 认证配置
type Auth struct {
	Secret          string `yaml:"secret" env:"SECRET"`
	Issuer          string `yaml:"issuer" env:"ISSUER"`
	ExpirationHours int    `yaml:"expiration_hours" env:"EXPIRATION_HOURS"`
	AdminUsername   string `yaml:"admin_username" env:"ADMIN_USERNAME"`
	AdminPassword   string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
	AdminEmail      string `yaml:"admin_email" env:"ADMIN_EMAIL"`
}

// 限流配置
type Limit struct {
	Enabled   bool     `yaml:"enabled" env:"ENABLED"`
	Requests  int64    `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	Burst     int64    `yaml:"burst" env:"BURST"`
	SkipPaths []string `yaml:"skip_paths" env:"SKIP_PATHS"`
}

// 短链接分配参数
type Shortener struct {
	CodeLength     int `yaml:"code_length" env:"CODE_LENGTH"`
	MaxAttempts    int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	MaxURLLength   int `yaml:"max_url_length" env:"MAX_URL_LENGTH"`
	StoreTimeoutMS int `yaml:"store_timeout_ms" env:"STORE_TIMEOUT_MS"`
}

// 日志配置
type Log struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Filename   string `yaml:"filename" env:"FILENAME"`
	MaxSize    int    `yaml:"max_size" env:"MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age" env:"MAX_AGE"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		App: App{
			Name:    "urlshorten",
			Mode:    "debug",
			Version: "1.0.0",
			BaseURL: "http://localhost:8080",
		},
		Server: Server{Port: 8080, ReadTimeout: 10, WriteTimeout: 10, ShutdownTimeout: 5},
		Database: DB{
			Driver:       "sqlite",
			Host:         "127.0.0.1",
			Port:         3306,
			Charset:      "utf8mb4",
			DSN:          "urlshorten.db",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Cache: Cache{Port: 6379, TTLMinutes: 60 * 24},
		Auth: Auth{
			Issuer:          "urlshorten",
			ExpirationHours: 24,
			AdminUsername:   "admin",
			AdminEmail:      "admin@example.com",
		},
		RateLimit: Limit{
			Enabled:   true,
			Requests:  120,
			Burst:     20,
			SkipPaths: []string{"/health", "/swagger"},
		},
		Shortener: Shortener{
			CodeLength:     6,
			MaxAttempts:    5,
			MaxURLLength:   2048,
			StoreTimeoutMS: 3000,
		},
		Log: Log{
			Level:      "info",
			Filename:   "./logs/app.log",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load 依次应用默认值、YAML 文件、.env 文件和环境变量。path 为空时跳过 YAML。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	// 生产环境通常没有 .env 文件
	_ = godotenv.Load()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "mysql":
		if c.Database.DSN == "" && c.Database.Name == "" {
			errs = append(errs, errors.New("database.name 不能为空"))
		}
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("%s 需要设置 database.dsn", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver))
	}

	if !strings.HasPrefix(c.App.BaseURL, "http://") && !strings.HasPrefix(c.App.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("app.base_url 必须以 http:// 或 https:// 开头: %q", c.App.BaseURL))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port 无效: %d", c.Server.Port))
	}
	if c.Shortener.CodeLength <= 0 {
		errs = append(errs, errors.New("shortener.code_length 必须大于 0"))
	}
	if c.Shortener.MaxAttempts <= 0 {
		errs = append(errs, errors.New("shortener.max_attempts 必须大于 0"))
	}
	if c.Shortener.CodeLength > 0 {
		sample := model.ComposeShortenedURL(c.App.BaseURL, strings.Repeat("x", c.Shortener.CodeLength))
		if n := utf8.RuneCountInString(sample); n > model.MaxShortenedURLLength {
			errs = append(errs, fmt.Errorf("app.base_url 加短码后长度为 %d，超过上限 %d", n, model.MaxShortenedURLLength))
		}
	}
	if c.RateLimit.Enabled && c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_minute 必须大于 0"))
	}

	return errors.Join(errs...)
}

// MySQLDSN 拼接 MySQL 连接串
func (d DB) MySQLDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name, d.Charset)
}

// Addr 返回 Redis 地址
func (c Cache) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TTL 缓存有效期
func (c Cache) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// StoreTimeout 单次存储调用超时
func (s Shortener) StoreTimeout() time.Duration {
	return time.Duration(s.StoreTimeoutMS) * time.Millisecond
}

// Addr 返回 HTTP 监听地址
func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
