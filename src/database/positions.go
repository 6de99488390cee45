package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// PositionRecord positions表的一行，每个交易对至多一行
type PositionRecord struct {
	Market       string          `json:"market"`
	OrderID      int64           `json:"order_id"`
	Side         string          `json:"side"`
	OrderType    string          `json:"order_type"`
	Amount       decimal.Decimal `json:"amount"`
	FilledAmount decimal.Decimal `json:"filled_amount"`
	FillPrice    decimal.Decimal `json:"fill_price"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	QuoteFee     decimal.Decimal `json:"quote_fee"`
	HiPrice      decimal.Decimal `json:"hi_price"` // 持仓期间最高价
	CreatedAt    int64           `json:"created_at"`
}

// PositionStore positions表的存储层
type PositionStore struct {
	db *sql.DB
}

// NewPositionStore 创建持仓存储层
func NewPositionStore(db *sql.DB) *PositionStore {
	return &PositionStore{db: db}
}

// Insert 写入新持仓，交易对已有持仓时报错
func (s *PositionStore) Insert(ctx context.Context, p *PositionRecord) error {
	query := `
		INSERT INTO positions (market, order_id, side, order_type, amount, filled_amount,
			fill_price, base_fee, quote_fee, hi_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		p.Market, p.OrderID, p.Side, p.OrderType,
		p.Amount, p.FilledAmount, p.FillPrice,
		p.BaseFee, p.QuoteFee, p.HiPrice, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert position %s: %w", p.Market, err)
	}
	return nil
}

// Get 按交易对查询持仓，无持仓时返回(nil, nil)
func (s *PositionStore) Get(ctx context.Context, market string) (*PositionRecord, error) {
	query := `
		SELECT market, order_id, side, order_type, amount, filled_amount,
			fill_price, base_fee, quote_fee, hi_price, created_at
		FROM positions WHERE market = $1`

	p := &PositionRecord{}
	err := s.db.QueryRowContext(ctx, query, market).Scan(
		&p.Market, &p.OrderID, &p.Side, &p.OrderType, &p.Amount, &p.FilledAmount,
		&p.FillPrice, &p.BaseFee, &p.QuoteFee, &p.HiPrice, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position %s: %w", market, err)
	}
	return p, nil
}

// GetAll 返回全部持仓
func (s *PositionStore) GetAll(ctx context.Context) ([]*PositionRecord, error) {
	query := `
		SELECT market, order_id, side, order_type, amount, filled_amount,
			fill_price, base_fee, quote_fee, hi_price, created_at
		FROM positions ORDER BY market`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*PositionRecord
	for rows.Next() {
		p := &PositionRecord{}
		if err := rows.Scan(
			&p.Market, &p.OrderID, &p.Side, &p.OrderType, &p.Amount, &p.FilledAmount,
			&p.FillPrice, &p.BaseFee, &p.QuoteFee, &p.HiPrice, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}
	return positions, nil
}

// Count 持仓数量
func (s *PositionStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM positions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return count, nil
}

// Delete 删除持仓
func (s *PositionStore) Delete(ctx context.Context, market string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE market = $1`, market); err != nil {
		return fmt.Errorf("failed to delete position %s: %w", market, err)
	}
	return nil
}

// UpdateFilledAmount 校准持仓数量到交易所账户的实际余额
func (s *PositionStore) UpdateFilledAmount(ctx context.Context, market string, amount decimal.Decimal) error {
	query := `UPDATE positions SET filled_amount = $2 WHERE market = $1`
	if _, err := s.db.ExecContext(ctx, query, market, amount); err != nil {
		return fmt.Errorf("failed to update filled amount %s: %w", market, err)
	}
	return nil
}

// RaiseHiPrice 抬高最高价水位，只升不降
func (s *PositionStore) RaiseHiPrice(ctx context.Context, market string, price decimal.Decimal) error {
	query := `UPDATE positions SET hi_price = $2 WHERE market = $1 AND hi_price < $2`
	if _, err := s.db.ExecContext(ctx, query, market, price); err != nil {
		return fmt.Errorf("failed to raise hi price %s: %w", market, err)
	}
	return nil
}
