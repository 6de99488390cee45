package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDB PostgreSQL数据库连接
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB 创建PostgreSQL数据库连接
func NewPostgresDB(cfg Config) (*PostgresDB, error) {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	psqlInfo := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslmode)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池参数
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresDB{db: db}, nil
}

// DB 返回底层连接，供各存储层注入使用
func (p *PostgresDB) DB() *sql.DB {
	return p.db
}

// Close 关闭数据库连接
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// InitSchema 建表，已存在时跳过
func (p *PostgresDB) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			market              TEXT PRIMARY KEY,
			min_amount          NUMERIC NOT NULL,
			maker_fee_rate      NUMERIC NOT NULL,
			taker_fee_rate      NUMERIC NOT NULL,
			is_amm_available    BOOLEAN NOT NULL DEFAULT FALSE,
			is_margin_available BOOLEAN NOT NULL DEFAULT FALSE,
			price               NUMERIC NOT NULL,
			value               NUMERIC NOT NULL,
			volume_sell         NUMERIC NOT NULL,
			volume_buy          NUMERIC NOT NULL,
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			market        TEXT PRIMARY KEY,
			order_id      BIGINT NOT NULL,
			side          TEXT NOT NULL,
			order_type    TEXT NOT NULL,
			amount        NUMERIC NOT NULL,
			filled_amount NUMERIC NOT NULL,
			fill_price    NUMERIC NOT NULL,
			base_fee      NUMERIC NOT NULL DEFAULT 0,
			quote_fee     NUMERIC NOT NULL DEFAULT 0,
			hi_price      NUMERIC NOT NULL,
			created_at    BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			deal_id    BIGINT PRIMARY KEY,
			order_id   BIGINT NOT NULL,
			market     TEXT NOT NULL,
			side       TEXT NOT NULL,
			price      NUMERIC NOT NULL,
			amount     NUMERIC NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_market_time
			ON transactions (market, created_at)`,
		`CREATE TABLE IF NOT EXISTS matched_trades (
			id          BIGSERIAL PRIMARY KEY,
			market      TEXT NOT NULL,
			buy_deal_id BIGINT NOT NULL,
			sell_deal_id BIGINT NOT NULL,
			amount      NUMERIC NOT NULL,
			buy_price   NUMERIC NOT NULL,
			sell_price  NUMERIC NOT NULL,
			profit      NUMERIC NOT NULL,
			matched_at  BIGINT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
