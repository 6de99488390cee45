package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionRecord transactions表的一行，对应交易所的一笔成交
// 只追加，deal_id冲突时忽略，重复拉取不产生重复记录
type TransactionRecord struct {
	DealID    int64           `json:"deal_id"`
	OrderID   int64           `json:"order_id"`
	Market    string          `json:"market"`
	Side      string          `json:"side"` // buy/sell
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt int64           `json:"created_at"` // 成交时间(毫秒)
}

// TransactionStore transactions表的存储层
type TransactionStore struct {
	db *sql.DB
}

// NewTransactionStore 创建成交记录存储层
func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// SaveAll 批量写入成交记录，已存在的deal_id跳过
func (s *TransactionStore) SaveAll(ctx context.Context, deals []*TransactionRecord) error {
	if len(deals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (deal_id, order_id, market, side, price, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (deal_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range deals {
		_, err = stmt.ExecContext(ctx,
			d.DealID, d.OrderID, d.Market, d.Side, d.Price, d.Amount, d.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", d.DealID, err)
		}
	}

	return tx.Commit()
}

// GetAllOrdered 按成交时间顺序返回全部成交记录
// 同一毫秒内按deal_id保证顺序稳定
func (s *TransactionStore) GetAllOrdered(ctx context.Context) ([]*TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT deal_id, order_id, market, side, price, amount, created_at
		FROM transactions ORDER BY created_at, deal_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var deals []*TransactionRecord
	for rows.Next() {
		d := &TransactionRecord{}
		err := rows.Scan(&d.DealID, &d.OrderID, &d.Market, &d.Side, &d.Price, &d.Amount, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		deals = append(deals, d)
	}

	return deals, rows.Err()
}
