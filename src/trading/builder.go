package trading

import (
	"context"
	"fmt"
	"time"

	"coinexbot/src/coinex"
	"coinexbot/src/gateway"
	"coinexbot/src/portfolio"
	"coinexbot/src/selector"
	"coinexbot/src/timeframes"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// CandidateSource 建仓依赖的候选筛选能力
type CandidateSource interface {
	Select(ctx context.Context, fast, slow timeframes.Timeframe, lookback int) ([]*selector.Candidate, error)
}

// Buyer 建仓依赖的下单能力
type Buyer interface {
	MarketBuy(ctx context.Context, market string, value decimal.Decimal) (*gateway.Result, error)
}

// BalanceSource 账户余额来源
type BalanceSource interface {
	GetSpotBalance(ctx context.Context) ([]*coinex.BalanceItem, error)
}

// BuilderConfig 建仓参数
type BuilderConfig struct {
	TargetPositions int                  // 目标持仓数
	CashPerPosition decimal.Decimal      // 单个持仓的计价资产预算上限，0表示不设上限
	BalancePercent  decimal.Decimal      // 单次买入占可用余额的比例
	FastTimeframe   timeframes.Timeframe // 快周期
	SlowTimeframe   timeframes.Timeframe // 慢周期
	Lookback        int                  // 信号回看K线数
	RetryInterval   time.Duration        // 两轮建仓尝试的最小间隔
}

// Builder 建仓流程
// 周期性筛选候选并市价买入，直到达到目标持仓数
type Builder struct {
	candidates CandidateSource
	buyer      Buyer
	ledger     *portfolio.Ledger
	balances   BalanceSource
	cfg        BuilderConfig
}

// NewBuilder 创建建仓流程
func NewBuilder(candidates CandidateSource, buyer Buyer, ledger *portfolio.Ledger,
	balances BalanceSource, cfg BuilderConfig) *Builder {
	return &Builder{
		candidates: candidates,
		buyer:      buyer,
		ledger:     ledger,
		balances:   balances,
		cfg:        cfg,
	}
}

// OrderAmount 计算下单数量(基础资产)
// 预算换算的数量低于交易所最小下单量时按最小下单量买入
func OrderAmount(budget, price, minAmount decimal.Decimal) decimal.Decimal {
	if price.IsZero() {
		return decimal.Zero
	}
	return decimal.Max(budget.Div(price), minAmount)
}

// Run 周期执行建仓直到ctx取消
func (b *Builder) Run(ctx context.Context) error {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("PortfolioBuilder")
	logger.Info(fmt.Sprintf("建仓启动: target=%d, fast=%s, slow=%s",
		b.cfg.TargetPositions, b.cfg.FastTimeframe, b.cfg.SlowTimeframe))

	for {
		if _, err := b.BuildOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error(fmt.Sprintf("建仓尝试失败: error=%v", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.cfg.RetryInterval):
		}
	}
}

// BuildOnce 执行一轮建仓尝试，返回本轮新开的持仓数
func (b *Builder) BuildOnce(ctx context.Context) (int, error) {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("PortfolioBuilder")

	balances, err := b.balances.GetSpotBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balances: %w", err)
	}
	if err := b.ledger.Sync(ctx, balances); err != nil {
		return 0, fmt.Errorf("failed to sync ledger: %w", err)
	}

	count, err := b.ledger.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count >= b.cfg.TargetPositions {
		return 0, nil
	}

	usdt := availableUSDT(balances)
	budget := b.budget(usdt)
	if !budget.IsPositive() {
		logger.Info("可用余额不足，本轮跳过建仓")
		return 0, nil
	}

	candidates, err := b.candidates.Select(ctx, b.cfg.FastTimeframe, b.cfg.SlowTimeframe, b.cfg.Lookback)
	if err != nil {
		return 0, fmt.Errorf("failed to select candidates: %w", err)
	}
	if len(candidates) == 0 {
		logger.Info("本轮无候选")
		return 0, nil
	}

	opened := 0
	for _, c := range candidates {
		if ctx.Err() != nil {
			return opened, ctx.Err()
		}
		if count+opened >= b.cfg.TargetPositions {
			break
		}

		existing, err := b.ledger.Position(ctx, c.Symbol)
		if err != nil {
			logger.Error(fmt.Sprintf("查询持仓失败，跳过: market=%s, error=%v", c.Symbol, err))
			continue
		}
		if existing != nil {
			// 已持有的不重复买入
			continue
		}

		amount := OrderAmount(budget, c.Close, c.MinAmount)
		value := amount.Mul(c.Close)
		if value.GreaterThan(usdt) {
			logger.Info(fmt.Sprintf("余额不足，跳过: market=%s, value=%s, usdt=%s",
				c.Symbol, value.String(), usdt.String()))
			continue
		}

		result, err := b.buyer.MarketBuy(ctx, c.Symbol, value)
		if err != nil {
			return opened, fmt.Errorf("failed to buy %s: %w", c.Symbol, err)
		}
		if result.Status == gateway.StatusFail {
			logger.Error(fmt.Sprintf("买入被拒绝，跳过: market=%s, detail=%s", c.Symbol, result.Detail))
			continue
		}

		if err := b.ledger.Open(ctx, result.Order); err != nil {
			logger.Error(fmt.Sprintf("记录持仓失败: market=%s, error=%v", c.Symbol, err))
			continue
		}
		usdt = usdt.Sub(value)
		opened++
		logger.Info(fmt.Sprintf("建仓完成: market=%s, amount=%s, value=%s",
			c.Symbol, amount.String(), value.String()))
	}

	return opened, nil
}

func (b *Builder) budget(usdt decimal.Decimal) decimal.Decimal {
	budget := usdt.Mul(b.cfg.BalancePercent)
	if b.cfg.CashPerPosition.IsPositive() && budget.GreaterThan(b.cfg.CashPerPosition) {
		budget = b.cfg.CashPerPosition
	}
	return budget
}

func availableUSDT(balances []*coinex.BalanceItem) decimal.Decimal {
	for _, b := range balances {
		if b.Ccy == "USDT" {
			return b.Available
		}
	}
	return decimal.Zero
}
