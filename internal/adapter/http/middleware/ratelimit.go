package middleware

import (
	"fmt"
	"strconv"
	"time"

	redisStore "vault-custody/internal/adapter/storage/redis"
	"vault-custody/pkg/apperror"
	"vault-custody/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// Route groups with their own counters.
const (
	GroupCreateVault = "vaults_create"
	GroupTransfer    = "transfers"
	GroupAirdrop     = "airdrop"
	GroupQuery       = "queries"
)

// DefaultRateLimitRules returns the per-group limits. The transfer limit
// bounds request volume per caller; it does not cap amounts.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		GroupCreateVault: {Limit: 10, Window: time.Minute},
		GroupTransfer:    {Limit: 100, Window: time.Minute},
		GroupAirdrop:     {Limit: 5, Window: time.Minute},
		GroupQuery:       {Limit: 300, Window: time.Minute},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Abort(c, apperror.ErrRateLimitExceeded())
			return
		}

		c.Next()
	}
}

// extractIdentifier keys signed requests by signer and the rest by client IP.
func extractIdentifier(c *gin.Context) string {
	if signer, ok := SignerFrom(c); ok {
		return signer.String()
	}
	return c.ClientIP()
}
