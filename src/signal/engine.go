package signal

import (
	"context"
	"fmt"
	"time"

	"coinexbot/src/database"
	"coinexbot/src/market"
	"coinexbot/src/timeframes"
	"coinexbot/src/tradingview"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// Snapshot 某个(交易对,周期)的最新信号快照
// 每轮评估重新计算，不落库
type Snapshot struct {
	Symbol         string                     `json:"symbol"`
	Timeframe      timeframes.Timeframe       `json:"timeframe"`
	Time           time.Time                  `json:"time"`
	Close          decimal.Decimal            `json:"close"`
	CumReturn      decimal.Decimal            `json:"cum_return"`
	MinAmount      decimal.Decimal            `json:"min_amount"`
	Recommendation tradingview.Recommendation `json:"recommendation"`
	Buy            int                        `json:"buy"`
	Sell           int                        `json:"sell"`
	Neutral        int                        `json:"neutral"`
}

// MarketData 信号引擎依赖的行情能力
type MarketData interface {
	GetTrackedSymbols(ctx context.Context) ([]*database.SymbolRecord, error)
	GetCandles(ctx context.Context, market string, tf timeframes.Timeframe, limit int) ([]*market.Candle, error)
}

// Oracle 信号引擎依赖的外部评分能力
type Oracle interface {
	GetSummary(ctx context.Context, symbol string, tf timeframes.Timeframe) (*tradingview.Summary, error)
}

// Engine 信号引擎
type Engine struct {
	marketData MarketData
	oracle     Oracle
}

// NewEngine 创建信号引擎
func NewEngine(marketData MarketData, oracle Oracle) *Engine {
	return &Engine{
		marketData: marketData,
		oracle:     oracle,
	}
}

// Evaluate 对全部跟踪交易对计算指定周期的信号快照
// 周期必须有效；单个交易对的数据异常只跳过该交易对
func (e *Engine) Evaluate(ctx context.Context, tf timeframes.Timeframe, lookback int) ([]*Snapshot, error) {
	if !tf.IsValid() {
		return nil, fmt.Errorf("invalid timeframe: %s", tf)
	}
	if lookback <= 0 {
		return nil, fmt.Errorf("lookback must be positive, got %d", lookback)
	}

	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("SignalEngine")

	symbols, err := e.marketData.GetTrackedSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked symbols: %w", err)
	}

	var snapshots []*Snapshot
	for _, sym := range symbols {
		// 支持在交易对之间响应取消
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		candles, err := e.marketData.GetCandles(ctx, sym.Market, tf, lookback)
		if err != nil {
			logger.Error(fmt.Sprintf("获取K线失败，跳过: symbol=%s, error=%v", sym.Market, err))
			continue
		}
		if len(candles) == 0 {
			// 新上市交易对可能没有K线
			continue
		}
		last := candles[len(candles)-1]

		summary, err := e.oracle.GetSummary(ctx, sym.Market, tf)
		if err != nil {
			logger.Error(fmt.Sprintf("获取评级失败，跳过: symbol=%s, error=%v", sym.Market, err))
			continue
		}

		snapshots = append(snapshots, &Snapshot{
			Symbol:         sym.Market,
			Timeframe:      tf,
			Time:           last.Time,
			Close:          last.Close,
			CumReturn:      last.CumReturn,
			MinAmount:      sym.MinAmount,
			Recommendation: summary.Recommendation,
			Buy:            summary.Buy,
			Sell:           summary.Sell,
			Neutral:        summary.Neutral,
		})
	}

	logger.Info(fmt.Sprintf("信号评估完成: timeframe=%s, symbols=%d, snapshots=%d",
		tf.String(), len(symbols), len(snapshots)))
	return snapshots, nil
}
