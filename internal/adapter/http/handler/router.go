package handler

import (
	"vault-custody/internal/adapter/http/middleware"
	redisStore "vault-custody/internal/adapter/storage/redis"
	"vault-custody/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	VaultSvc       ports.VaultService
	TransferSvc    ports.TransferService
	ReportingSvc   ports.ReportingService
	FundingSvc     ports.FundingService // nil = faucet disabled
	SigSvc         ports.SignatureService
	NonceStore     ports.NonceStore
	AuthConfig     middleware.SignerAuthConfig
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService  // nil = audit logging disabled
	Gatherer       prometheus.Gatherer // nil = no /metrics endpoint
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	signed := middleware.SignerAuth(deps.SigSvc, deps.NonceStore, deps.AuthConfig, deps.Logger)

	vaultHandler := NewVaultHandler(deps.VaultSvc, deps.TransferSvc, deps.ReportingSvc)
	accountHandler := NewAccountHandler(deps.ReportingSvc, deps.FundingSvc)

	v1 := r.Group("/api/v1")

	vaults := v1.Group("/vaults")
	{
		vaults.POST("", signed, rl(middleware.GroupCreateVault), vaultHandler.CreateVault)
		vaults.GET("/:address", rl(middleware.GroupQuery), vaultHandler.GetVault)
		vaults.GET("/:address/transfers", rl(middleware.GroupQuery), vaultHandler.ListTransfers)
		vaults.POST("/:address/transfers", signed, rl(middleware.GroupTransfer), vaultHandler.Transfer)
	}

	v1.GET("/authorities/:authority/vault", rl(middleware.GroupQuery), vaultHandler.GetVaultByAuthority)

	accounts := v1.Group("/accounts")
	{
		accounts.GET("/:address", rl(middleware.GroupQuery), accountHandler.GetAccount)
		accounts.POST("/:address/airdrop", rl(middleware.GroupAirdrop), accountHandler.Airdrop)
	}

	return r
}
