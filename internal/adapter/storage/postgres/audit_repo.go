package postgres

import (
	"context"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
)

type auditRepo struct {
	pool Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, signer, action, resource_type, resource_id, status, details, ip_address, created_at)
 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID, log.Signer, string(log.Action), log.ResourceType,
		log.ResourceID, log.Status, log.Details, log.IPAddress, log.CreatedAt,
	)
	return err
}
