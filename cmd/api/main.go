package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainwage/payroll-api/internal/chain"
	"github.com/chainwage/payroll-api/internal/config"
	"github.com/chainwage/payroll-api/internal/handler"
	"github.com/chainwage/payroll-api/internal/logging"
	"github.com/chainwage/payroll-api/internal/middleware"
	"github.com/chainwage/payroll-api/internal/service/disbursement"
)

func main() {
	// Local development convenience; production supplies real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("payroll-api", cfg.LogLevel, cfg.AppEnv)

	rpc := chain.NewClient(cfg.RPCURL, cfg.SignerKey)
	contract := chain.NewPayrollContract(rpc, chain.ContractConfig{
		Address:      cfg.ContractAddress,
		Signer:       cfg.SignerAddress,
		GasLimit:     cfg.GasLimit,
		GasPriceWei:  new(big.Int).SetUint64(cfg.GasPriceWei),
		PollInterval: time.Duration(cfg.ConfirmationPollMS) * time.Millisecond,
	})

	disburseSvc := disbursement.NewService(contract, cfg)
	disburseHandler := handler.NewDisbursementHandler(disburseSvc)

	idempotency := middleware.Idempotency(
		cfg.IdempotencyCacheSize,
		time.Duration(cfg.IdempotencyTTLMin)*time.Minute,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/v1/payroll/disburse", idempotency(disburseHandler))

	root := middleware.Tracing(middleware.Logging(middleware.CORS(middleware.Recovery(mux))))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: root,
		// No WriteTimeout: the disbursement response is held open for the
		// confirmation wait, bounded by CONFIRMATION_TIMEOUT_S instead.
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "contract", cfg.ContractAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
