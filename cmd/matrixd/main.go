package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/interview-matrix/internal/app"
	"github.com/joseph-ayodele/interview-matrix/internal/common"
	"github.com/joseph-ayodele/interview-matrix/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, common.TerminalPrompter{}, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		if common.IsConfigurationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	defer a.Close()

	if err := server.Serve(ctx, cfg.Server.GRPCAddr, a.Service, logger); err != nil {
		logger.Error("gRPC serve error", "addr", cfg.Server.GRPCAddr, "error", err)
		stop()
		a.Close()
		os.Exit(1)
	}
	logger.Info("stopped")
}
