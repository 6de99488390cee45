package cmd

import (
	"context"
	"fmt"
	"time"

	"coinexbot/src/config"

	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterInitDBCmd 注册建表命令
func RegisterInitDBCmd() {
	cmd.RegisterCmd("initdb", "create database tables", func(args *arg.Arg) {
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 数据库连接失败: %v\n", err)
			return
		}
		defer d.close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := d.db.InitSchema(ctx); err != nil {
			fmt.Printf("❌ 建表失败: %v\n", err)
			return
		}
		fmt.Println("✅ 数据库表已就绪")
	})
}

// RegisterSymbolsCmd 注册交易对刷新命令
func RegisterSymbolsCmd() {
	var verbose bool

	cmd.RegisterCmd("symbols", "refresh the tracked USDT symbol universe", func(args *arg.Arg) {
		args.Bool(&verbose, "v", "list refreshed symbols")
		args.Parse()

		d, err := newDeps()
		if err != nil {
			fmt.Printf("❌ 初始化失败: %v\n", err)
			return
		}
		defer d.close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		fmt.Println("🔄 正在刷新交易对...")
		count, err := d.market.RefreshSymbols(ctx, config.AppConfig.GetMinSymbolPrice())
		if err != nil {
			fmt.Printf("❌ 刷新失败: %v\n", err)
			return
		}
		fmt.Printf("✅ 交易对刷新完成，共%d个\n", count)

		if verbose {
			symbols, err := d.market.GetTrackedSymbols(ctx)
			if err != nil {
				fmt.Printf("❌ 读取失败: %v\n", err)
				return
			}
			for _, s := range symbols {
				fmt.Printf("🔸 %-14s 价格=%s 最小下单量=%s\n",
					s.Market, s.Price.String(), s.MinAmount.String())
			}
		}
	})
}
