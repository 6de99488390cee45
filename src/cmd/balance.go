package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterBalanceCmd 注册余额查询命令
func RegisterBalanceCmd() {
	cmd.RegisterCmd("balance", "show spot account balances and recorded positions", func(args *arg.Arg) {
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 初始化失败: %v\n", err)
			return
		}
		defer d.close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		balances, err := d.client.GetSpotBalance(ctx)
		if err != nil {
			fmt.Printf("❌ 查询余额失败: %v\n", err)
			return
		}

		fmt.Println("💰 现货账户余额")
		fmt.Println("================================")
		for _, b := range balances {
			fmt.Printf("🔸 %-8s 可用=%s 冻结=%s\n",
				b.Ccy, b.Available.String(), b.Frozen.String())
		}

		positions, err := d.ledger.Positions(ctx)
		if err != nil {
			fmt.Printf("❌ 查询持仓失败: %v\n", err)
			return
		}

		fmt.Println()
		fmt.Printf("📋 台账持仓 (%d)\n", len(positions))
		fmt.Println("================================")
		for _, p := range positions {
			fmt.Printf("🔸 %-14s 数量=%s 成本=%s 最高=%s\n",
				p.Market, p.FilledAmount.String(), p.FillPrice.String(), p.HiPrice.String())
		}
	})
}
