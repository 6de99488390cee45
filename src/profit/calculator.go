package profit

import (
	"context"
	"fmt"

	"coinexbot/src/coinex"
	"coinexbot/src/database"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// DealSource 成交记录的来源
type DealSource interface {
	GetUserDeals(ctx context.Context, market string, page, limit int) ([]*coinex.DealItem, error)
}

// Report 已实现盈亏报告
type Report struct {
	Total    decimal.Decimal            `json:"total"`
	ByMarket map[string]decimal.Decimal `json:"by_market"`
	Trades   []*database.MatchedTrade   `json:"trades"`
}

// Calculator 已实现盈亏计算器
// 先把交易所成交流水落到本地，再对全量流水做先进先出配对
type Calculator struct {
	source       DealSource
	transactions *database.TransactionStore
	matched      *database.MatchedTradeStore
}

// NewCalculator 创建盈亏计算器
func NewCalculator(source DealSource, transactions *database.TransactionStore, matched *database.MatchedTradeStore) *Calculator {
	return &Calculator{
		source:       source,
		transactions: transactions,
		matched:      matched,
	}
}

const dealPageSize = 100

// Ingest 拉取交易所成交流水并落库，返回本次拉取的条数
// 流水只追加，重复拉取靠deal_id去重
func (c *Calculator) Ingest(ctx context.Context) (int, error) {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("ProfitCalculator")

	total := 0
	for page := 1; ; page++ {
		deals, err := c.source.GetUserDeals(ctx, "", page, dealPageSize)
		if err != nil {
			return total, fmt.Errorf("failed to fetch user deals page %d: %w", page, err)
		}
		if len(deals) == 0 {
			break
		}

		records := make([]*database.TransactionRecord, 0, len(deals))
		for _, d := range deals {
			records = append(records, &database.TransactionRecord{
				DealID:    d.DealID,
				OrderID:   d.OrderID,
				Market:    d.Market,
				Side:      d.Side,
				Price:     d.Price,
				Amount:    d.Amount,
				CreatedAt: d.CreatedAtMilli,
			})
		}
		if err := c.transactions.SaveAll(ctx, records); err != nil {
			return total, err
		}
		total += len(deals)

		if len(deals) < dealPageSize {
			break
		}
	}

	logger.Info(fmt.Sprintf("成交流水入库完成: count=%d", total))
	return total, nil
}

// Compute 对本地全量流水做配对并落库，返回盈亏报告
func (c *Calculator) Compute(ctx context.Context) (*Report, error) {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("ProfitCalculator")

	deals, err := c.transactions.GetAllOrdered(ctx)
	if err != nil {
		return nil, err
	}

	trades := MatchFIFO(deals)
	if err := c.matched.ReplaceAll(ctx, trades); err != nil {
		return nil, err
	}

	report := &Report{
		Total:    decimal.Zero,
		ByMarket: make(map[string]decimal.Decimal),
		Trades:   trades,
	}
	for _, m := range trades {
		report.Total = report.Total.Add(m.Profit)
		report.ByMarket[m.Market] = report.ByMarket[m.Market].Add(m.Profit)
	}

	logger.Info(fmt.Sprintf("盈亏配对完成: trades=%d, total=%s",
		len(trades), report.Total.String()))
	return report, nil
}

// buyLot 尚未配对完的买入腿
type buyLot struct {
	dealID    int64
	price     decimal.Decimal
	remaining decimal.Decimal
}

// MatchFIFO 按先进先出把卖出腿配到最早的未配对买入腿上
// 输入必须按成交时间升序；一笔卖出可能拆开消耗多笔买入，
// 没有对应买入腿的卖出余量（外部转入的币）直接丢弃
func MatchFIFO(deals []*database.TransactionRecord) []*database.MatchedTrade {
	lots := make(map[string][]*buyLot)
	var trades []*database.MatchedTrade

	for _, d := range deals {
		switch d.Side {
		case "buy":
			lots[d.Market] = append(lots[d.Market], &buyLot{
				dealID:    d.DealID,
				price:     d.Price,
				remaining: d.Amount,
			})
		case "sell":
			remaining := d.Amount
			queue := lots[d.Market]
			for len(queue) > 0 && remaining.IsPositive() {
				lot := queue[0]
				qty := decimal.Min(lot.remaining, remaining)

				trades = append(trades, &database.MatchedTrade{
					Market:     d.Market,
					BuyDealID:  lot.dealID,
					SellDealID: d.DealID,
					Amount:     qty,
					BuyPrice:   lot.price,
					SellPrice:  d.Price,
					Profit:     d.Price.Sub(lot.price).Mul(qty),
					MatchedAt:  d.CreatedAt,
				})

				lot.remaining = lot.remaining.Sub(qty)
				remaining = remaining.Sub(qty)
				if lot.remaining.IsZero() {
					queue = queue[1:]
				}
			}
			lots[d.Market] = queue
		}
	}

	return trades
}
