package selector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"coinexbot/src/signal"
	"coinexbot/src/timeframes"
	"coinexbot/src/tradingview"

	"github.com/shopspring/decimal"
)

// Candidate 买入候选
type Candidate struct {
	Symbol    string          `json:"symbol"`
	Time      time.Time       `json:"time"`
	Close     decimal.Decimal `json:"close"`      // 快周期收盘价
	CumReturn decimal.Decimal `json:"cum_return"` // 快周期累计收益率，排序键
	MinAmount decimal.Decimal `json:"min_amount"` // 交易所最小下单数量
}

// Evaluator 候选筛选依赖的信号评估能力
type Evaluator interface {
	Evaluate(ctx context.Context, tf timeframes.Timeframe, lookback int) ([]*signal.Snapshot, error)
}

// Selector 候选筛选器：双周期强烈买入的交集
type Selector struct {
	engine Evaluator
}

// NewSelector 创建候选筛选器
func NewSelector(engine Evaluator) *Selector {
	return &Selector{engine: engine}
}

// Select 返回快慢两个周期同时为STRONG_BUY的交易对
// 按快周期累计收益率降序排列；无候选时返回空序列，调用方按"本轮无操作"处理
func (s *Selector) Select(ctx context.Context, fast, slow timeframes.Timeframe, lookback int) ([]*Candidate, error) {
	if !fast.IsValid() {
		return nil, fmt.Errorf("invalid fast timeframe: %s", fast)
	}
	if !slow.IsValid() {
		return nil, fmt.Errorf("invalid slow timeframe: %s", slow)
	}
	fastDur, _ := fast.GetDuration()
	slowDur, _ := slow.GetDuration()
	if fastDur >= slowDur {
		return nil, fmt.Errorf("slow timeframe %s must be longer than fast %s", slow, fast)
	}

	fastSnapshots, err := s.engine.Evaluate(ctx, fast, lookback)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate fast timeframe: %w", err)
	}

	slowSnapshots, err := s.engine.Evaluate(ctx, slow, lookback)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate slow timeframe: %w", err)
	}

	slowStrongBuy := make(map[string]bool, len(slowSnapshots))
	for _, snap := range slowSnapshots {
		if snap.Recommendation == tradingview.StrongBuy {
			slowStrongBuy[snap.Symbol] = true
		}
	}

	var candidates []*Candidate
	for _, snap := range fastSnapshots {
		if snap.Recommendation != tradingview.StrongBuy {
			continue
		}
		if !slowStrongBuy[snap.Symbol] {
			continue
		}
		candidates = append(candidates, &Candidate{
			Symbol:    snap.Symbol,
			Time:      snap.Time,
			Close:     snap.Close,
			CumReturn: snap.CumReturn,
			MinAmount: snap.MinAmount,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CumReturn.GreaterThan(candidates[j].CumReturn)
	})

	return candidates, nil
}
