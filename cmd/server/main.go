package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"proofgate/internal/anchor"
	"proofgate/internal/issuer"
	"proofgate/internal/persistence"
	"proofgate/internal/platform/config"
	"proofgate/internal/platform/health"
	"proofgate/internal/platform/httpserver"
	"proofgate/internal/platform/logger"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/platform/tracer"
	"proofgate/internal/presentation"
	"proofgate/internal/proofs"
	"proofgate/internal/replay"
	"proofgate/internal/revocation"
	httptransport "proofgate/internal/transport/http"
	"proofgate/internal/verification"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	log.Info("initializing proofgate",
		"addr", cfg.Addr,
		"chain_network", cfg.ChainNetwork,
		"anchor_configured", cfg.ChainRPCURL != "" && cfg.ContractAddress != "",
	)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	snapshots := persistence.NewStore(cfg.SnapshotPath, persistence.WithLogger(log))
	defer snapshots.Close()

	anchors := anchor.NewClient(rootCtx, anchor.Config{
		RPCURL:              cfg.ChainRPCURL,
		ContractAddress:     cfg.ContractAddress,
		Network:             cfg.ChainNetwork,
		EnableMainnetWrites: cfg.MainnetWritesOn,
		CallTimeout:         cfg.ChainCallTimeout,
		PrivateKeyHex:       cfg.AnchorPrivateKey,
	}, anchor.WithLogger(log), anchor.WithMetrics(m))

	registry := issuer.NewRegistryClient(cfg.IssuerRegistryURL, cfg.ChainCallTimeout)
	issuers := issuer.NewResolver(registry, cfg.IssuerCacheTTL,
		issuer.WithLogger(log), issuer.WithMetrics(m))

	status := revocation.NewClient(cfg.StatusBaseURL, cfg.ChainCallTimeout)

	results := verification.NewResultStore(cfg.ResultCacheTTL)
	pipeline := verification.New(results, issuers, status, anchors,
		verification.WithLogger(log),
		verification.WithMetrics(m),
		verification.WithTracer(tracer.NewNoop()),
		verification.WithMaxBulkSize(cfg.MaxBulkSize),
	)

	requests := presentation.NewRequestStore(snapshots, presentation.WithStoreLogger(log))
	broker := presentation.New(requests, pipeline, cfg.PresentationTTL,
		presentation.WithLogger(log), presentation.WithMetrics(m))
	broker.Start(rootCtx)
	defer broker.Stop()

	guard := replay.NewGuard(cfg.ReplayTTL, replay.WithLogger(log))
	guard.Start(rootCtx)
	defer guard.Stop()

	proofService := proofs.New(guard, pipeline,
		proofs.WithLogger(log), proofs.WithMetrics(m))

	healthHandler := health.New(cfg.ChainNetwork)
	healthHandler.RegisterCheck("snapshot", func() error {
		_, err := snapshots.Load(rootCtx)
		return err
	})

	router := httptransport.NewRouter(httptransport.Options{
		Logger:       log,
		Health:       healthHandler,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Handlers: []httptransport.Registrar{
			verification.NewHandler(pipeline, log),
			presentation.NewHandler(broker, log),
			proofs.NewHandler(proofService, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
