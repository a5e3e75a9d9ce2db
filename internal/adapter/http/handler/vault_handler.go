package handler

import (
	"time"

	"vault-custody/internal/adapter/http/dto"
	"vault-custody/internal/adapter/http/middleware"
	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/apperror"
	"vault-custody/pkg/pubkey"
	"vault-custody/pkg/response"

	"github.com/gin-gonic/gin"
)

// VaultHandler handles vault creation, lookup and withdrawal endpoints.
type VaultHandler struct {
	vaultSvc     ports.VaultService
	transferSvc  ports.TransferService
	reportingSvc ports.ReportingService
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vaultSvc ports.VaultService, transferSvc ports.TransferService, reportingSvc ports.ReportingService) *VaultHandler {
	return &VaultHandler{vaultSvc: vaultSvc, transferSvc: transferSvc, reportingSvc: reportingSvc}
}

// CreateVault handles POST /api/v1/vaults. The signer becomes the authority.
func (h *VaultHandler) CreateVault(c *gin.Context) {
	signer, ok := middleware.SignerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrMissingSignature())
		return
	}

	record, err := h.vaultSvc.CreateVault(c.Request.Context(), signer)
	if err != nil {
		response.Error(c, err)
		return
	}

	created := record.CreatedAt.Format(time.RFC3339)
	response.Created(c, dto.VaultResponse{
		Address:   record.Address.String(),
		Authority: record.Authority.String(),
		Bump:      record.Bump,
		Status:    string(domain.VaultStatusActive),
		CreatedAt: &created,
	})
}

// GetVault handles GET /api/v1/vaults/:address.
func (h *VaultHandler) GetVault(c *gin.Context) {
	address, ok := pathKey(c, "address")
	if !ok {
		return
	}

	view, err := h.reportingSvc.GetVault(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toVaultResponse(view))
}

// GetVaultByAuthority handles GET /api/v1/authorities/:authority/vault.
// The address is derived, so an uninitialized vault is reported rather than 404.
func (h *VaultHandler) GetVaultByAuthority(c *gin.Context) {
	authority, ok := pathKey(c, "authority")
	if !ok {
		return
	}

	view, err := h.reportingSvc.GetVaultByAuthority(c.Request.Context(), authority)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toVaultResponse(view))
}

// Transfer handles POST /api/v1/vaults/:address/transfers. The signer is the caller.
func (h *VaultHandler) Transfer(c *gin.Context) {
	signer, ok := middleware.SignerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrMissingSignature())
		return
	}

	vault, ok := pathKey(c, "address")
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	transfer, err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		Vault:     vault,
		Caller:    signer,
		Recipient: pubkey.MustParse(req.Recipient),
		Amount:    *req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransferResponse(transfer))
}

// ListTransfers handles GET /api/v1/vaults/:address/transfers.
func (h *VaultHandler) ListTransfers(c *gin.Context) {
	vault, ok := pathKey(c, "address")
	if !ok {
		return
	}

	var q dto.ListTransfersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	transfers, err := h.reportingSvc.ListTransfers(c.Request.Context(), vault, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, toTransferResponse(&transfers[i]))
	}
	response.OK(c, dto.TransferListResponse{Items: items, Count: len(items)})
}

// pathKey parses a base58 path parameter, writing LED_002 on failure.
func pathKey(c *gin.Context, name string) (pubkey.PublicKey, bool) {
	key, err := pubkey.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation(name+": "+err.Error()))
		return pubkey.PublicKey{}, false
	}
	return key, true
}

func toVaultResponse(v *ports.VaultView) dto.VaultResponse {
	resp := dto.VaultResponse{
		Address:  v.Address.String(),
		Bump:     v.Bump,
		Status:   string(v.Status),
		Lamports: v.Lamports,
	}
	if v.Record != nil {
		created := v.Record.CreatedAt.Format(time.RFC3339)
		resp.Authority = v.Record.Authority.String()
		resp.CreatedAt = &created
	}
	return resp
}

func toTransferResponse(t *domain.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:                t.ID.String(),
		Vault:             t.Vault.String(),
		Authority:         t.Authority.String(),
		Caller:            t.Caller.String(),
		Recipient:         t.Recipient.String(),
		Amount:            t.Amount,
		VaultBalanceAfter: t.VaultBalanceAfter,
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
	}
}
