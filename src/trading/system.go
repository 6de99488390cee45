package trading

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coinexbot/src/monitor"

	"github.com/xpwu/go-log/log"
)

// System 完整交易系统：建仓与风控两条流程共用一个持仓台账
type System struct {
	builder *Builder
	monitor *monitor.Monitor
}

// NewSystem 创建交易系统
func NewSystem(builder *Builder, riskMonitor *monitor.Monitor) *System {
	return &System{
		builder: builder,
		monitor: riskMonitor,
	}
}

// Run 并行运行建仓与风控，直到ctx取消后两者都退出
func (s *System) Run(ctx context.Context) error {
	ctx, logger := log.WithCtx(ctx)
	logger.PushPrefix("TradingSystem")
	logger.Info("交易系统启动")

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.builder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs <- fmt.Errorf("builder stopped: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs <- fmt.Errorf("monitor stopped: %w", err)
		}
	}()

	wg.Wait()
	close(errs)

	logger.Info("交易系统已停止")
	for err := range errs {
		return err
	}
	return nil
}
