package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchedTrade 一次买卖配对的已实现盈亏
// 部分成交时一笔买入可拆出多条配对记录
type MatchedTrade struct {
	Market     string          `json:"market"`
	BuyDealID  int64           `json:"buy_deal_id"`
	SellDealID int64           `json:"sell_deal_id"`
	Amount     decimal.Decimal `json:"amount"`
	BuyPrice   decimal.Decimal `json:"buy_price"`
	SellPrice  decimal.Decimal `json:"sell_price"`
	Profit     decimal.Decimal `json:"profit"` // 卖出所得减买入成本
	MatchedAt  int64           `json:"matched_at"`
}

// MatchedTradeStore matched_trades表的存储层
type MatchedTradeStore struct {
	db *sql.DB
}

// NewMatchedTradeStore 创建配对记录存储层
func NewMatchedTradeStore(db *sql.DB) *MatchedTradeStore {
	return &MatchedTradeStore{db: db}
}

// ReplaceAll 整表替换配对结果
// 配对每次从全量成交记录重算，结果表没有增量语义
func (s *MatchedTradeStore) ReplaceAll(ctx context.Context, trades []*MatchedTrade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM matched_trades"); err != nil {
		return fmt.Errorf("failed to clear matched trades: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matched_trades (market, buy_deal_id, sell_deal_id, amount,
			buy_price, sell_price, profit, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range trades {
		_, err = stmt.ExecContext(ctx,
			m.Market, m.BuyDealID, m.SellDealID, m.Amount,
			m.BuyPrice, m.SellPrice, m.Profit, m.MatchedAt)
		if err != nil {
			return fmt.Errorf("failed to insert matched trade %s: %w", m.Market, err)
		}
	}

	return tx.Commit()
}

// GetAll 返回全部配对记录
func (s *MatchedTradeStore) GetAll(ctx context.Context) ([]*MatchedTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market, buy_deal_id, sell_deal_id, amount,
		       buy_price, sell_price, profit, matched_at
		FROM matched_trades ORDER BY matched_at, sell_deal_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query matched trades: %w", err)
	}
	defer rows.Close()

	var trades []*MatchedTrade
	for rows.Next() {
		m := &MatchedTrade{}
		err := rows.Scan(&m.Market, &m.BuyDealID, &m.SellDealID, &m.Amount,
			&m.BuyPrice, &m.SellPrice, &m.Profit, &m.MatchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matched trade: %w", err)
		}
		trades = append(trades, m)
	}

	return trades, rows.Err()
}
