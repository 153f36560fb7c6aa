// Package db はGORMによるデータベース接続を提供します。
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"account_backend/internal/feature/auth/domain/entity"
	"account_backend/internal/platform/db/migrations"
)

// サポートするドライバー名
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval は接続リトライの間隔です。
const retryInterval = 3 * time.Second

// Config はデータベース接続の設定です。
type Config struct {
	// Driver は"postgres"または"sqlite"です。
	Driver string

	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
	// InstanceName が設定されている場合、Cloud SQLのUnixソケット経由で接続します。
	InstanceName string

	// SQLitePath はSQLiteのファイルパスです（":memory:"も可）。
	SQLitePath string

	// ConnectTimeout は接続リトライを諦めるまでの時間です。
	ConnectTimeout time.Duration
	// AutoMigrate がtrueの場合、起動時にテーブルを自動作成します。
	AutoMigrate bool
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替えるために使用します。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN はPostgreSQL用のDSN文字列を生成します。
// InstanceNameが設定されている場合はHost/Portより優先されます。
func BuildDSN(cfg Config) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	if cfg.InstanceName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.InstanceName, cfg.User, cfg.Password, cfg.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// ConnectWithRetry はtimeoutに達するまで一定間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB は設定に従ってデータベースに接続し、必要であればマイグレーションを実行します。
// 一意制約違反をgorm.ErrDuplicatedKeyとして扱えるよう、TranslateErrorを有効にします。
func OpenDB(cfg Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{TranslateError: true}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "account.db"
		}
		db, err = openSQLite(path, gcfg)
	case DriverPostgres, "":
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		db, err = ConnectWithRetry(BuildDSN(cfg), timeout, func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gcfg)
		})
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(context.Background(), db, cfg.Driver); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// openSQLite はSQLiteを開きます。
// SQLiteは書き込みを直列化するため、接続は1本に制限します（":memory:"は接続ごとに別DBになる点にも対応）。
func openSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// gooseUp はgoose.UpContextの差し替えポイントです（テスト用）。
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate はアプリケーションのテーブルを作成・更新します。
// PostgreSQLでは埋め込みSQLをgooseで適用し、SQLiteではGORMのAutoMigrateを使用します。
func Migrate(ctx context.Context, db *gorm.DB, driver string) error {
	if driver == DriverSQLite {
		if err := db.WithContext(ctx).AutoMigrate(&entity.User{}); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseUp(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Ping はデータベースへの疎通を確認します。ヘルスチェックで使用します。
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
