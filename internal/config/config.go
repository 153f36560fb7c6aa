// Package config は環境変数（と任意の.envファイル）からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"account_backend/internal/feature/auth/adapters"
	"account_backend/internal/feature/auth/usecase"
	"account_backend/internal/platform/db"
	infrahttp "account_backend/internal/platform/http"
	"account_backend/internal/platform/mail"
	"account_backend/internal/platform/password"
	"account_backend/internal/platform/ratelimit"
	infraredis "account_backend/internal/platform/redis"
)

// JWTConfig はトークン署名鍵と検証オプションです。
type JWTConfig struct {
	// PrivateKey はEd25519秘密鍵（PKCS#8 PEM）です。
	PrivateKey []byte
	// PublicKey は省略可能です。指定した場合は秘密鍵と一致する必要があります。
	PublicKey []byte
	Issuer    string
	Leeway    time.Duration
}

// LogConfig はslogの出力設定です。
type LogConfig struct {
	// Format は"json"または"text"です。
	Format string
	Level  slog.Level
}

// Config はアプリケーション全体の設定です。mainで一度だけ生成し、各コンストラクタに渡します。
type Config struct {
	HTTP      infrahttp.ServerConfig
	DB        db.Config
	Redis     infraredis.Config
	JWT       JWTConfig
	Lifetimes usecase.TokenLifetimes
	Password  password.Config
	// SMTP.Hostが空の場合、メールは送信せずログに出力します。
	SMTP      mail.SMTPConfig
	Frontend  adapters.FrontendURLs
	RateLimit ratelimit.Config
	Log       LogConfig
}

// Load は.envファイル（存在する場合）を読み込んだ後、環境変数から設定を構築します。
// 既に設定されている環境変数は.envで上書きされません。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv は環境変数から設定を構築し、検証します。
func FromEnv() (*Config, error) {
	e := &envReader{}

	cfg := &Config{
		HTTP: infrahttp.ServerConfig{
			Addr:            ":" + e.str("PORT", "8080"),
			ReadTimeout:     e.duration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    e.duration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     e.duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: e.duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: db.Config{
			Driver:         e.str("DB_DRIVER", db.DriverPostgres),
			User:           e.str("DB_USER", ""),
			Password:       e.str("DB_PASSWORD", ""),
			Name:           e.str("DB_NAME", ""),
			Host:           e.str("DB_HOST", "localhost"),
			Port:           e.str("DB_PORT", "5432"),
			SSLMode:        e.str("DB_SSLMODE", "disable"),
			InstanceName:   e.str("INSTANCE_CONNECTION_NAME", ""),
			SQLitePath:     e.str("SQLITE_PATH", "account.db"),
			ConnectTimeout: e.duration("DB_CONNECT_TIMEOUT", 60*time.Second),
			AutoMigrate:    e.boolean("RUN_MIGRATIONS", false),
		},
		Redis: infraredis.Config{
			Host:     e.str("REDIS_HOST", ""),
			Port:     e.str("REDIS_PORT", "6379"),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.integer("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			PrivateKey: e.key("JWT_PRIVATE_KEY"),
			PublicKey:  e.key("JWT_PUBLIC_KEY"),
			Issuer:     e.str("JWT_ISSUER", ""),
			Leeway:     e.duration("JWT_LEEWAY", 0),
		},
		Lifetimes: usecase.TokenLifetimes{
			Access:            e.duration("ACCESS_TOKEN_TTL", 15*time.Minute),
			Refresh:           e.duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			EmailConfirmation: e.duration("EMAIL_CONFIRMATION_TTL", 24*time.Hour),
			ResetPassword:     e.duration("RESET_PASSWORD_TTL", time.Hour),
		},
		Password: password.Config{
			Cost:    e.integer("PASSWORD_BCRYPT_COST", bcrypt.DefaultCost),
			Workers: e.integer("PASSWORD_WORKERS", 0),
		},
		SMTP: mail.SMTPConfig{
			Host:     e.str("SMTP_HOST", ""),
			Port:     e.integer("SMTP_PORT", 587),
			Username: e.str("SMTP_USERNAME", ""),
			Password: e.str("SMTP_PASSWORD", ""),
			From:     e.str("MAIL_FROM", "no-reply@localhost"),
		},
		Frontend: adapters.FrontendURLs{
			VerifyEmail:   e.str("FRONTEND_VERIFY_URL", "http://localhost:3000/verify"),
			ResetPassword: e.str("FRONTEND_RESET_PASSWORD_URL", "http://localhost:3000/reset-password"),
		},
		RateLimit: ratelimit.Config{
			Limit:  e.integer("RATE_LIMIT_ATTEMPTS", 10),
			Window: e.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Format: e.str("LOG_FORMAT", "json"),
			Level:  e.level("LOG_LEVEL", slog.LevelInfo),
		},
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は必須項目と値の範囲を検証します。
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.PrivateKey) == 0 {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY (or JWT_PRIVATE_KEY_FILE) is required"))
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		errs = append(errs, errors.New("JWT_LEEWAY must be between 0 and 2m"))
	}
	for name, d := range map[string]time.Duration{
		"ACCESS_TOKEN_TTL":       c.Lifetimes.Access,
		"REFRESH_TOKEN_TTL":      c.Lifetimes.Refresh,
		"EMAIL_CONFIRMATION_TTL": c.Lifetimes.EmailConfirmation,
		"RESET_PASSWORD_TTL":     c.Lifetimes.ResetPassword,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("PASSWORD_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.DB.Driver {
	case db.DriverPostgres:
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required for postgres"))
		}
	case db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q", db.DriverPostgres, db.DriverSQLite))
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_ATTEMPTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, errors.New(`LOG_FORMAT must be "json" or "text"`))
	}
	return errors.Join(errs...)
}

// envReader は環境変数を型付きで読み込み、パースエラーを蓄積します。
type envReader struct {
	errs []error
}

func (e *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *envReader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (e *envReader) level(key string, def slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid log level %q", key, v))
		return def
	}
	return l
}

// key は鍵をKEYから、空の場合はKEY_FILEのパスから読み込みます。
// .envでは改行を"\n"と書けるよう、エスケープされた改行を展開します。
func (e *envReader) key(name string) []byte {
	if v := os.Getenv(name); v != "" {
		return []byte(strings.ReplaceAll(v, `\n`, "\n"))
	}
	path := os.Getenv(name + "_FILE")
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s_FILE: %w", name, err))
		return nil
	}
	return b
}
