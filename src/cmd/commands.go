package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// RegisterAllCommands 注册全部命令
func RegisterAllCommands() {
	RegisterPingCmd()
	RegisterInitDBCmd()
	RegisterSymbolsCmd()
	RegisterBalanceCmd()
	RegisterSelectCmd()
	RegisterBuildCmd()
	RegisterMonitorCmd()
	RegisterRunCmd()
	RegisterProfitCmd()
}

// signalContext 返回随SIGINT/SIGTERM取消的上下文
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
