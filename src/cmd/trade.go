package cmd

import (
	"context"
	"fmt"
	"time"

	"coinexbot/src/config"
	"coinexbot/src/selector"
	"coinexbot/src/signal"
	"coinexbot/src/trading"
	"coinexbot/src/tradingview"

	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterSelectCmd 注册候选查看命令，只筛选不下单
func RegisterSelectCmd() {
	cmd.RegisterCmd("select", "show current buy candidates without trading", func(args *arg.Arg) {
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 初始化失败: %v\n", err)
			return
		}
		defer d.close()

		cfg := config.AppConfig
		fast, err := cfg.GetFastTimeframe()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		slow, err := cfg.GetSlowTimeframe()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}

		oracle := tradingview.NewClient(cfg.TradingView.Screener, cfg.TradingView.Exchange,
			cfg.TradingView.BaseURL)
		sel := selector.NewSelector(signal.NewEngine(d.market, oracle))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		fmt.Printf("🔍 候选筛选: fast=%s, slow=%s\n", fast, slow)
		candidates, err := sel.Select(ctx, fast, slow, cfg.Trading.Lookback)
		if err != nil {
			fmt.Printf("❌ 筛选失败: %v\n", err)
			return
		}
		if len(candidates) == 0 {
			fmt.Println("📭 本轮无候选")
			return
		}

		fmt.Printf("✅ 候选%d个（按快周期累计收益率降序）\n", len(candidates))
		for i, c := range candidates {
			fmt.Printf("%2d. %-14s 收盘=%s 累计收益=%s\n",
				i+1, c.Symbol, c.Close.String(), c.CumReturn.String())
		}
	})
}

// RegisterBuildCmd 注册建仓命令
func RegisterBuildCmd() {
	var once bool

	cmd.RegisterCmd("build", "build the portfolio from strong-buy candidates", func(args *arg.Arg) {
		args.Bool(&once, "once", "run a single build round and exit")
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 初始化失败: %v\n", err)
			return
		}
		defer d.close()

		builder, err := d.newBuilder()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}

		ctx, cancel := signalContext()
		defer cancel()

		if once {
			opened, err := builder.BuildOnce(ctx)
			if err != nil {
				fmt.Printf("❌ 建仓失败: %v\n", err)
				return
			}
			fmt.Printf("✅ 本轮新开持仓%d个\n", opened)
			return
		}

		fmt.Println("🚀 建仓流程启动，Ctrl+C退出")
		if err := builder.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Printf("❌ 建仓流程退出: %v\n", err)
		}
	})
}

// RegisterMonitorCmd 注册风控命令
func RegisterMonitorCmd() {
	cmd.RegisterCmd("monitor", "run the trailing stop-loss monitor", func(args *arg.Arg) {
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 初始化失败: %v\n", err)
			return
		}
		defer d.close()

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Println("🛡️ 风控启动，Ctrl+C退出")
		if err := d.newMonitor().Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Printf("❌ 风控退出: %v\n", err)
		}
	})
}

// RegisterRunCmd 注册完整系统命令
func RegisterRunCmd() {
	cmd.RegisterCmd("run", "run portfolio building and risk monitoring together", func(args *arg.Arg) {
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 初始化失败: %v\n", err)
			return
		}
		defer d.close()

		builder, err := d.newBuilder()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		system := trading.NewSystem(builder, d.newMonitor())

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Println("🚀 交易系统启动，Ctrl+C退出")
		if err := system.Run(ctx); err != nil {
			fmt.Printf("❌ 交易系统退出: %v\n", err)
			return
		}
		fmt.Println("✅ 交易系统已停止")
	})
}
