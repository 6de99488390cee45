package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// SymbolRecord 交易对记录
type SymbolRecord struct {
	Market            string          `json:"market"`
	MinAmount         decimal.Decimal `json:"min_amount"`
	MakerFeeRate      decimal.Decimal `json:"maker_fee_rate"`
	TakerFeeRate      decimal.Decimal `json:"taker_fee_rate"`
	IsAMMAvailable    bool            `json:"is_amm_available"`
	IsMarginAvailable bool            `json:"is_margin_available"`
	Price             decimal.Decimal `json:"price"`
	Value             decimal.Decimal `json:"value"`
	VolumeSell        decimal.Decimal `json:"volume_sell"`
	VolumeBuy         decimal.Decimal `json:"volume_buy"`
}

// SymbolStore symbols表的存储层
type SymbolStore struct {
	db *sql.DB
}

// NewSymbolStore 创建交易对存储层
func NewSymbolStore(db *sql.DB) *SymbolStore {
	return &SymbolStore{db: db}
}

// ReplaceAll 整表替换交易对数据
// 每个刷新周期全量覆盖，不做增量更新
func (s *SymbolStore) ReplaceAll(ctx context.Context, symbols []*SymbolRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM symbols"); err != nil {
		return fmt.Errorf("failed to clear symbols: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (
			market, min_amount, maker_fee_rate, taker_fee_rate,
			is_amm_available, is_margin_available,
			price, value, volume_sell, volume_buy
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		_, err = stmt.ExecContext(ctx,
			sym.Market, sym.MinAmount, sym.MakerFeeRate, sym.TakerFeeRate,
			sym.IsAMMAvailable, sym.IsMarginAvailable,
			sym.Price, sym.Value, sym.VolumeSell, sym.VolumeBuy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", sym.Market, err)
		}
	}

	return tx.Commit()
}

// GetAll 获取全部交易对
func (s *SymbolStore) GetAll(ctx context.Context) ([]*SymbolRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market, min_amount, maker_fee_rate, taker_fee_rate,
		       is_amm_available, is_margin_available,
		       price, value, volume_sell, volume_buy
		FROM symbols ORDER BY market
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []*SymbolRecord
	for rows.Next() {
		sym := &SymbolRecord{}
		err := rows.Scan(
			&sym.Market, &sym.MinAmount, &sym.MakerFeeRate, &sym.TakerFeeRate,
			&sym.IsAMMAvailable, &sym.IsMarginAvailable,
			&sym.Price, &sym.Value, &sym.VolumeSell, &sym.VolumeBuy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}

	return symbols, rows.Err()
}

// Get 获取单个交易对
func (s *SymbolStore) Get(ctx context.Context, market string) (*SymbolRecord, error) {
	sym := &SymbolRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT market, min_amount, maker_fee_rate, taker_fee_rate,
		       is_amm_available, is_margin_available,
		       price, value, volume_sell, volume_buy
		FROM symbols WHERE market = $1
	`, market).Scan(
		&sym.Market, &sym.MinAmount, &sym.MakerFeeRate, &sym.TakerFeeRate,
		&sym.IsAMMAvailable, &sym.IsMarginAvailable,
		&sym.Price, &sym.Value, &sym.VolumeSell, &sym.VolumeBuy,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol %s: %w", market, err)
	}
	return sym, nil
}
