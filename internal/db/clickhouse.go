package db

import (
	"context"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/hookgw/hookgw/internal/config"
	"github.com/jmoiron/sqlx"
)

// NewClickHouseConnection opens the archive store connection.
func NewClickHouseConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("clickhouse", cfg.DSN)
	if err != nil {
		return nil, err
	}

	applyPool(dbx, cfg)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := dbx.PingContext(ctx); err != nil {
		_ = dbx.Close()
		return nil, err
	}

	return dbx, nil
}
