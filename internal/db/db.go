package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/senyabanana/loadboard-service/internal/router/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnString возвращает строку подключения: POSTGRES_CONN или собранную из отдельных параметров.
func ConnString(cfg config.Config) (string, error) {
	if cfg.PostgresConn != "" {
		return cfg.PostgresConn, nil
	}
	if cfg.PostgresUser == "" || cfg.PostgresPass == "" || cfg.PostgresHost == "" || cfg.PostgresPort == "" || cfg.PostgresDB == "" {
		return "", fmt.Errorf("one or more database connection environment variables are missing")
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.PostgresUser, cfg.PostgresPass),
		Host:     net.JoinHostPort(cfg.PostgresHost, cfg.PostgresPort),
		Path:     cfg.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String(), nil
}

// InitDb инициализирует подключение к базе данных и возвращает пул соединений.
func InitDb(ctx context.Context, databaseUrl string) (*pgxpool.Pool, error) {
	dbPool, err := pgxpool.New(ctx, databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return dbPool, nil
}

// RunMigrations применяет миграции из migrationURL.
func RunMigrations(migrationURL, databaseUrl string) error {
	migration, err := migrate.New(migrationURL, databaseUrl)
	if err != nil {
		return fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	defer migration.Close()

	if err = migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate up: %w", err)
	}
	return nil
}
