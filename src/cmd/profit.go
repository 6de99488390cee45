package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterProfitCmd 注册盈亏统计命令
func RegisterProfitCmd() {
	var skipIngest bool

	cmd.RegisterCmd("profit", "calculate realized profit from matched trades", func(args *arg.Arg) {
		args.Bool(&skipIngest, "local", "skip fetching new deals, match local records only")
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 初始化失败: %v\n", err)
			return
		}
		defer d.close()

		calc := d.newCalculator()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if !skipIngest {
			fmt.Println("🔄 正在拉取成交流水...")
			n, err := calc.Ingest(ctx)
			if err != nil {
				fmt.Printf("❌ 拉取失败: %v\n", err)
				return
			}
			fmt.Printf("✅ 入库%d条\n", n)
		}

		report, err := calc.Compute(ctx)
		if err != nil {
			fmt.Printf("❌ 配对失败: %v\n", err)
			return
		}

		fmt.Println()
		fmt.Println("📈 已实现盈亏")
		fmt.Println("================================")

		markets := make([]string, 0, len(report.ByMarket))
		for m := range report.ByMarket {
			markets = append(markets, m)
		}
		sort.Strings(markets)
		for _, m := range markets {
			fmt.Printf("🔸 %-14s %s\n", m, report.ByMarket[m].String())
		}

		fmt.Println("--------------------------------")
		fmt.Printf("💵 合计: %s USDT (配对%d笔)\n", report.Total.String(), len(report.Trades))
	})
}
