package cmd

import (
	"context"
	"fmt"
	"time"

	"coinexbot/src/coinex"
	"coinexbot/src/config"

	"github.com/xpwu/go-cmd/arg"
	"github.com/xpwu/go-cmd/cmd"
)

// RegisterPingCmd 注册连通性测试命令
func RegisterPingCmd() {
	var verbose bool
	var timeout int

	cmd.RegisterCmd("ping", "test connectivity to CoinEx API server", func(args *arg.Arg) {
		args.Bool(&verbose, "v", "verbose output with detailed information")
		args.Int(&timeout, "t", "timeout in seconds (default: 10)")
		args.Parse()

		if timeout <= 0 {
			timeout = 10
		}

		if err := runPingTest(verbose, timeout); err != nil {
			fmt.Printf("❌ Ping test failed: %v\n", err)
			return
		}
		fmt.Println("✅ Ping test successful!")
	})
}

// runPingTest 执行连通性测试
func runPingTest(verbose bool, timeoutSeconds int) error {
	if verbose {
		fmt.Println("🌐 CoinEx API连通性测试")
		fmt.Println("================================")
		fmt.Printf("📡 目标服务器: %s\n", config.AppConfig.CoinEx.BaseURL)
		fmt.Printf("⏰ 超时时间: %d秒\n", timeoutSeconds)
		fmt.Println()
	}

	// 公开行情接口无需API密钥
	client := coinex.NewClient("", "", config.AppConfig.CoinEx.BaseURL, "", timeoutSeconds)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	if verbose {
		fmt.Print("🔄 正在测试连接...")
	}

	start := time.Now()
	ticker, err := client.GetSpotTicker(ctx, "BTCUSDT")
	if err != nil {
		return err
	}

	if verbose {
		fmt.Printf(" 完成! (耗时: %v)\n", time.Since(start))
		fmt.Printf("🔸 BTCUSDT最新价: %s\n", ticker.Last.String())
	}
	return nil
}
