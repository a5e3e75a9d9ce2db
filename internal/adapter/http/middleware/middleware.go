package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"vault-custody/internal/adapter/http/dto"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/apperror"
	"vault-custody/pkg/pubkey"
	"vault-custody/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Header names for ed25519 request signatures
	HeaderSigner    = "X-Signer"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
	HeaderNonce     = "X-Nonce"
	HeaderRequestID = "X-Request-ID"

	defaultMaxTimestampDrift = 60 * time.Second
	defaultNonceTTL          = 120 * time.Second

	// Context keys
	CtxSigner = "signer"
)

// SignerAuthConfig bounds request freshness. Zero values select the defaults
// (60s drift, 120s nonce TTL).
type SignerAuthConfig struct {
	MaxTimestampDrift time.Duration
	NonceTTL          time.Duration
}

// SignerAuth verifies that the request was signed by the ed25519 key named in
// X-Signer and stores that key in the context under CtxSigner.
// Pipeline: Check timestamp -> Check nonce -> Verify signature.
func SignerAuth(
	sigSvc ports.SignatureService,
	nonceStore ports.NonceStore,
	cfg SignerAuthConfig,
	log zerolog.Logger,
) gin.HandlerFunc {
	if cfg.MaxTimestampDrift <= 0 {
		cfg.MaxTimestampDrift = defaultMaxTimestampDrift
	}
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = defaultNonceTTL
	}

	return func(c *gin.Context) {
		var headers dto.SignedHeaders
		if err := c.ShouldBindHeader(&headers); err != nil {
			response.Abort(c, apperror.ErrMissingSignature())
			return
		}
		signer := pubkey.MustParse(headers.Signer)

		// Step 1: Timestamp check
		drift := time.Since(time.Unix(headers.Timestamp, 0))
		if drift < 0 {
			drift = -drift
		}
		if drift > cfg.MaxTimestampDrift {
			response.Abort(c, apperror.ErrTimestampExpired())
			return
		}

		// Step 2: Nonce check. Fails closed: a replayed transfer moves funds.
		isNew, err := nonceStore.CheckAndSet(c.Request.Context(), headers.Signer, headers.Nonce, cfg.NonceTTL)
		if err != nil {
			log.Error().Err(err).Str("signer", headers.Signer).Msg("nonce store error")
			response.Abort(c, apperror.InternalError(err))
			return
		}
		if !isNew {
			response.Abort(c, apperror.ErrNonceUsed())
			return
		}

		// Step 3: Signature verification
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Abort(c, apperror.Validation("cannot read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		canonical := sigSvc.BuildCanonicalString(
			c.Request.Method,
			c.Request.URL.Path,
			headers.Timestamp,
			headers.Nonce,
			string(bodyBytes),
		)

		if !sigSvc.Verify(signer, canonical, headers.Signature) {
			response.Abort(c, apperror.ErrInvalidSignature())
			return
		}

		c.Set(CtxSigner, signer)
		c.Next()
	}
}

// SignerFrom returns the identity authenticated by SignerAuth.
func SignerFrom(c *gin.Context) (pubkey.PublicKey, bool) {
	v, ok := c.Get(CtxSigner)
	if !ok {
		return pubkey.PublicKey{}, false
	}
	signer, ok := v.(pubkey.PublicKey)
	return signer, ok
}

// RequestID propagates X-Request-ID, generating one when absent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		if signer, ok := SignerFrom(c); ok {
			event = event.Str("signer", signer.String())
		}

		event.
			Str("request_id", c.GetString(response.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
