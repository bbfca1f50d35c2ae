package main

import (
	"context"
	"os"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/xlog"
)

type banner struct{}

func (banner) JSON() string {
	return `{"app":"xtree","desc":"red-black tree driver"}`
}

func (banner) PlainText() string {
	return `
__  __ _____ ____  _____ _____
\ \/ /|_   _|  _ \| ____| ____|
 \  /   | | | |_) |  _| |  _|
 /  \   | | |  _ <| |___| |___
/_/\_\  |_| |_| \_\_____|_____|
`
}

func main() {
	os.Exit(run(os.Getenv))
}

func run(getenv func(string) string) int {
	cfg, err := LoadConfig(getenv)
	if err != nil {
		logger := xlog.NewXLogger()
		logger.ErrorStack(err, "xtree config load failed")
		_ = logger.Sync()
		return 2
	}
	logger := xlog.NewXLogger(xlog.WithXLoggerLevel(cfg.LogLevel))
	defer func() {
		_ = logger.Sync()
	}()
	logger.Banner(banner{})

	app := fx.New(appOptions(cfg, logger))
	if err := app.Err(); err != nil {
		logger.ErrorStack(err, "xtree app build failed")
		return exitCodeFailed
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		logger.ErrorStack(err, "xtree app start failed")
		return exitCodeFailed
	}

	sig := <-app.Wait()
	logger.Info("xtree app stopping", zap.String("signal", sig.String()), zap.Int("code", sig.ExitCode))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.ErrorStack(err, "xtree app stop failed")
		return exitCodeFailed
	}
	return sig.ExitCode
}
