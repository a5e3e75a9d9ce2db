package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vault-custody/config"
	httpHandler "vault-custody/internal/adapter/http/handler"
	"vault-custody/internal/adapter/http/middleware"
	"vault-custody/internal/adapter/metrics"
	memStorage "vault-custody/internal/adapter/storage/memory"
	pgStorage "vault-custody/internal/adapter/storage/postgres"
	redisStorage "vault-custody/internal/adapter/storage/redis"
	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/internal/service"
	"vault-custody/pkg/logger"
	"vault-custody/pkg/pubkey"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// repositories is the storage driver selected by storage.driver.
type repositories struct {
	vaults     ports.VaultRepository
	accounts   ports.AccountRepository
	transfers  ports.TransferRepository
	audit      ports.AuditRepository
	transactor ports.DBTransactor
	health     ports.HealthChecker
	close      func()
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting vault custody service")

	ctx := context.Background()

	programID, err := pubkey.Parse(cfg.Vault.ProgramID)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid vault.program_id")
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer repos.close()

	healthCheckers := []ports.HealthChecker{repos.health}

	// Redis is optional: without it nonces live in process memory and
	// rate limiting is off.
	var nonceStore ports.NonceStore = memStorage.NewNonceStore()
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		nonceStore = redisStorage.NewNonceStore(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	rent := domain.RentPolicy{LamportsPerByte: cfg.Ledger.RentLamportsPerByte}

	// Initialize business services
	vaultSvc := service.NewVaultService(repos.vaults, repos.accounts, repos.transactor, programID, rent, m, log)
	transferSvc := service.NewTransferService(
		cfg.Vault.TrustedService,
		repos.vaults,
		repos.accounts,
		repos.transfers,
		repos.transactor,
		programID,
		rent,
		m,
		log,
	)
	reportingSvc := service.NewReportingService(repos.vaults, repos.accounts, repos.transfers, programID)
	auditSvc := service.NewAuditService(repos.audit, log)
	sigSvc := service.NewEd25519SignatureService()

	var fundingSvc ports.FundingService
	if cfg.Ledger.FaucetEnabled {
		fundingSvc = service.NewFaucetService(repos.accounts, repos.transactor, cfg.Ledger.FaucetMaxLamports, m, log)
		log.Warn().Uint64("max_lamports", cfg.Ledger.FaucetMaxLamports).Msg("Faucet enabled")
	}

	if trusted, err := transferSvc.TrustedService(); err == nil {
		log.Info().Str("trusted_service", trusted.String()).Msg("Transfer gate configured")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		VaultSvc:     vaultSvc,
		TransferSvc:  transferSvc,
		ReportingSvc: reportingSvc,
		FundingSvc:   fundingSvc,
		SigSvc:       sigSvc,
		NonceStore:   nonceStore,
		AuthConfig: middleware.SignerAuthConfig{
			MaxTimestampDrift: cfg.Auth.MaxTimestampDrift,
			NonceTTL:          cfg.Auth.NonceTTL,
		},
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
		AuditSvc:       auditSvc,
		Gatherer:       registry,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openRepositories(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories, error) {
	if cfg.Storage.Driver == config.StoragePostgres {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("PostgreSQL connected")
		return &repositories{
			vaults:     pgStorage.NewVaultRepo(pool),
			accounts:   pgStorage.NewAccountRepo(pool),
			transfers:  pgStorage.NewTransferRepo(pool),
			audit:      pgStorage.NewAuditRepository(pool),
			transactor: pgStorage.NewTransactor(pool),
			health:     pgStorage.NewHealthCheck(pool),
			close:      pool.Close,
		}, nil
	}

	store := memStorage.NewStore()
	log.Warn().Msg("Using in-memory storage, state is lost on exit")
	return &repositories{
		vaults:     memStorage.NewVaultRepo(store),
		accounts:   memStorage.NewAccountRepo(store),
		transfers:  memStorage.NewTransferRepo(store),
		audit:      memStorage.NewAuditRepo(store),
		transactor: memStorage.NewTransactor(store),
		health:     memStorage.NewHealthCheck(),
		close:      func() {},
	}, nil
}
