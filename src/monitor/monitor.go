package monitor

import (
	"context"
	"fmt"
	"time"

	"coinexbot/src/coinex"
	"coinexbot/src/gateway"
	"coinexbot/src/portfolio"

	"github.com/shopspring/decimal"
	"github.com/xpwu/go-log/log"
)

// Seller 风控平仓依赖的下单能力
type Seller interface {
	MarketSell(ctx context.Context, market string, amount decimal.Decimal) (*gateway.Result, error)
}

// BalanceSource 账户余额来源
type BalanceSource interface {
	GetSpotBalance(ctx context.Context) ([]*coinex.BalanceItem, error)
}

// PriceSource 实时价格来源
type PriceSource interface {
	GetLastPrice(ctx context.Context, market string) (decimal.Decimal, error)
}

// Monitor 持仓风控
// 每轮先以账户余额校对台账，再逐个持仓做追踪止损止盈检查
type Monitor struct {
	ledger     *portfolio.Ledger
	seller     Seller
	balances   BalanceSource
	prices     PriceSource
	lossLimit  decimal.Decimal // 止损系数，如0.9表示从高点回落10%离场
	takeProfit decimal.Decimal // 止盈系数，如1.5表示涨到成本1.5倍后锁定该价位
	interval   time.Duration
}

// NewMonitor 创建持仓风控
func NewMonitor(ledger *portfolio.Ledger, seller Seller, balances BalanceSource,
	prices PriceSource, lossLimit, takeProfit decimal.Decimal, interval time.Duration) *Monitor {
	return &Monitor{
		ledger:     ledger,
		seller:     seller,
		balances:   balances,
		prices:     prices,
		lossLimit:  lossLimit,
		takeProfit: takeProfit,
		interval:   interval,
	}
}

// ExitFloor 计算离场价位
// 基础水位是成本价与持仓最高价中较高者乘以止损系数；
// 最高价一旦到过成本价的止盈倍数，离场价位固定在该止盈价，不再跟随高点上移
func ExitFloor(fillPrice, hiPrice, lossLimit, takeProfit decimal.Decimal) decimal.Decimal {
	if takeProfit.IsPositive() {
		target := fillPrice.Mul(takeProfit)
		if hiPrice.GreaterThanOrEqual(target) {
			return target
		}
	}
	return decimal.Max(fillPrice, hiPrice).Mul(lossLimit)
}

// Run 周期执行风控检查直到ctx取消
// 检查间隔固定，不随单轮耗时调整
func (m *Monitor) Run(ctx context.Context) error {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("RiskMonitor")
	logger.Info(fmt.Sprintf("风控启动: loss_limit=%s, take_profit=%s, interval=%s",
		m.lossLimit.String(), m.takeProfit.String(), m.interval))

	for {
		if err := m.CheckOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// 单轮失败不退出，下一轮重试
			logger.Error(fmt.Sprintf("风控检查失败: error=%v", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.interval):
		}
	}
}

// CheckOnce 执行一轮风控检查
func (m *Monitor) CheckOnce(ctx context.Context) error {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("RiskMonitor")

	balances, err := m.balances.GetSpotBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch balances: %w", err)
	}
	if err := m.ledger.Sync(ctx, balances); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}

	positions, err := m.ledger.Positions(ctx)
	if err != nil {
		return err
	}

	for _, p := range positions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.checkPosition(ctx, p.Market, p.FillPrice, p.HiPrice, p.FilledAmount); err != nil {
			logger.Error(fmt.Sprintf("持仓检查失败，跳过: market=%s, error=%v", p.Market, err))
		}
	}
	return nil
}

func (m *Monitor) checkPosition(ctx context.Context, market string,
	fillPrice, hiPrice, amount decimal.Decimal) error {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix(market)

	price, err := m.prices.GetLastPrice(ctx, market)
	if err != nil {
		return fmt.Errorf("failed to fetch price: %w", err)
	}

	if price.GreaterThan(hiPrice) {
		if err := m.ledger.RaiseHighWater(ctx, market, price); err != nil {
			return err
		}
		hiPrice = price
	}

	floor := ExitFloor(fillPrice, hiPrice, m.lossLimit, m.takeProfit)
	if price.GreaterThan(floor) {
		return nil
	}

	logger.Info(fmt.Sprintf("触发离场: price=%s, floor=%s, fill=%s, hi=%s",
		price.String(), floor.String(), fillPrice.String(), hiPrice.String()))

	result, err := m.seller.MarketSell(ctx, market, amount)
	if err != nil {
		return fmt.Errorf("failed to place sell order: %w", err)
	}
	if result.Status == gateway.StatusFail {
		// 留在台账里，下一轮重试
		logger.Error(fmt.Sprintf("平仓被拒绝: detail=%s", result.Detail))
		return nil
	}

	if err := m.ledger.Close(ctx, market); err != nil {
		return fmt.Errorf("failed to close position: %w", err)
	}
	logger.Info(fmt.Sprintf("平仓完成: order_id=%d, amount=%s", result.Order.OrderID, amount.String()))
	return nil
}
