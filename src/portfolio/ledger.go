package portfolio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"coinexbot/src/coinex"
	"coinexbot/src/database"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// PriceSource 同步持仓时为账面外资产估值的价格来源
type PriceSource interface {
	GetLastPrice(ctx context.Context, market string) (decimal.Decimal, error)
}

// Ledger 持仓台账
// 所有写操作经过同一把锁串行化，建仓与风控两条流程共用一个实例
type Ledger struct {
	mu        sync.Mutex
	positions *database.PositionStore
	symbols   *database.SymbolStore
	prices    PriceSource
}

// NewLedger 创建持仓台账
func NewLedger(positions *database.PositionStore, symbols *database.SymbolStore, prices PriceSource) *Ledger {
	return &Ledger{
		positions: positions,
		symbols:   symbols,
		prices:    prices,
	}
}

// Open 以成交订单建仓，交易对已有持仓时拒绝
// 初始最高价水位取成交均价
func (l *Ledger) Open(ctx context.Context, order *coinex.OrderInfo) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.positions.Get(ctx, order.Market)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("position already exists for %s", order.Market)
	}

	fillPrice := order.LastFillPrice
	if fillPrice.IsZero() && !order.FilledAmount.IsZero() {
		fillPrice = order.FilledValue.Div(order.FilledAmount)
	}

	return l.positions.Insert(ctx, &database.PositionRecord{
		Market:       order.Market,
		OrderID:      order.OrderID,
		Side:         order.Side,
		OrderType:    order.Type,
		Amount:       order.Amount,
		FilledAmount: order.FilledAmount,
		FillPrice:    fillPrice,
		BaseFee:      order.BaseFee,
		QuoteFee:     order.QuoteFee,
		HiPrice:      fillPrice,
		CreatedAt:    order.CreatedAtMilli,
	})
}

// Close 平仓后移除台账记录
func (l *Ledger) Close(ctx context.Context, market string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions.Delete(ctx, market)
}

// Position 按交易对查询持仓，无持仓时返回(nil, nil)
func (l *Ledger) Position(ctx context.Context, market string) (*database.PositionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions.Get(ctx, market)
}

// Positions 返回全部持仓
func (l *Ledger) Positions(ctx context.Context) ([]*database.PositionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions.GetAll(ctx)
}

// Count 持仓数量
func (l *Ledger) Count(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions.Count(ctx)
}

// RaiseHighWater 抬高持仓期间最高价，只升不降
func (l *Ledger) RaiseHighWater(ctx context.Context, market string, price decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions.RaiseHiPrice(ctx, market, price)
}

// Sync 以交易所账户余额为准校对台账
// 只有账户余额里已经不存在的币种才删除记录；数量不一致的记录校准到账户余额；
// 台账外的持币按当前市价补建记录。单条记录出错只记录日志，不中断整轮校对
func (l *Ledger) Sync(ctx context.Context, balances []*coinex.BalanceItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("Ledger")

	held := make(map[string]decimal.Decimal)
	for _, b := range balances {
		if b.Ccy == "USDT" {
			continue
		}
		total := b.Available.Add(b.Frozen)
		if !total.IsPositive() {
			continue
		}
		held[strings.ToUpper(b.Ccy)+"USDT"] = total
	}

	recorded, err := l.positions.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, p := range recorded {
		balance, ok := held[p.Market]
		if !ok {
			// 账户已经不持有，台账记录作废
			if err := l.positions.Delete(ctx, p.Market); err != nil {
				logger.Error(fmt.Sprintf("删除失效持仓失败: market=%s, error=%v", p.Market, err))
			} else {
				logger.Info(fmt.Sprintf("删除失效持仓: market=%s", p.Market))
			}
			continue
		}
		if !balance.Equal(p.FilledAmount) {
			if err := l.positions.UpdateFilledAmount(ctx, p.Market, balance); err != nil {
				logger.Error(fmt.Sprintf("校准持仓数量失败: market=%s, error=%v", p.Market, err))
			}
		}
		delete(held, p.Market)
	}

	// 余下的是交易所持有但台账缺失的，按当前市价补建
	// 跟踪范围和粉尘判断只影响补建，已有记录不受symbols表状态影响
	markets := make([]string, 0, len(held))
	for market := range held {
		markets = append(markets, market)
	}
	sort.Strings(markets)

	for _, market := range markets {
		balance := held[market]

		sym, err := l.symbols.Get(ctx, market)
		if err != nil {
			logger.Error(fmt.Sprintf("查询交易对失败，跳过补建: market=%s, error=%v", market, err))
			continue
		}
		if sym == nil {
			// 不在跟踪范围内的币种不补建
			continue
		}
		if balance.LessThan(sym.MinAmount) {
			// 低于最小下单量的粉尘余额无法卖出，不补建
			continue
		}

		price, err := l.prices.GetLastPrice(ctx, market)
		if err != nil {
			logger.Error(fmt.Sprintf("获取市价失败，跳过补建: market=%s, error=%v", market, err))
			continue
		}
		record := &database.PositionRecord{
			Market:       market,
			OrderID:      0,
			Side:         "buy",
			OrderType:    "market",
			Amount:       balance,
			FilledAmount: balance,
			FillPrice:    price,
			HiPrice:      price,
			CreatedAt:    time.Now().UnixMilli(),
		}
		if err := l.positions.Insert(ctx, record); err != nil {
			logger.Error(fmt.Sprintf("补建持仓失败: market=%s, error=%v", market, err))
			continue
		}
		logger.Info(fmt.Sprintf("补建持仓: market=%s, amount=%s, price=%s",
			market, balance.String(), price.String()))
	}

	return nil
}
