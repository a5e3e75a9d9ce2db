package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records every mutating request after it completes, including
// rejected ones, so failed withdrawal attempts leave a trail.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}

		action, resourceType, resourceParam := mapRouteToAction(c.FullPath())
		if action == "" {
			return
		}

		var signer *string
		if s, ok := SignerFrom(c); ok {
			str := s.String()
			signer = &str
		}

		resourceID := ""
		if resourceParam != "" {
			resourceID = c.Param(resourceParam)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(response.RequestIDKey),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			Signer:       signer,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Status:       c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

// mapRouteToAction maps a gin route template to the audited action, the
// resource type and the path parameter naming the resource.
func mapRouteToAction(route string) (domain.AuditAction, string, string) {
	switch route {
	case "/api/v1/vaults":
		return domain.AuditActionCreateVault, "vault", ""
	case "/api/v1/vaults/:address/transfers":
		return domain.AuditActionTransfer, "vault", "address"
	case "/api/v1/accounts/:address/airdrop":
		return domain.AuditActionAirdrop, "account", "address"
	}
	return "", "", ""
}
