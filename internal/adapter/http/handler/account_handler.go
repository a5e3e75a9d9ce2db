package handler

import (
	"vault-custody/internal/adapter/http/dto"
	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports"
	"vault-custody/pkg/apperror"
	"vault-custody/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles balance lookups and faucet funding.
type AccountHandler struct {
	reportingSvc ports.ReportingService
	fundingSvc   ports.FundingService // nil when the faucet is disabled
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(reportingSvc ports.ReportingService, fundingSvc ports.FundingService) *AccountHandler {
	return &AccountHandler{reportingSvc: reportingSvc, fundingSvc: fundingSvc}
}

// GetAccount handles GET /api/v1/accounts/:address.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	address, ok := pathKey(c, "address")
	if !ok {
		return
	}

	account, err := h.reportingSvc.GetAccount(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAccountResponse(account))
}

// Airdrop handles POST /api/v1/accounts/:address/airdrop.
func (h *AccountHandler) Airdrop(c *gin.Context) {
	if h.fundingSvc == nil {
		response.Error(c, apperror.ErrFeatureDisabled("Faucet"))
		return
	}

	address, ok := pathKey(c, "address")
	if !ok {
		return
	}

	var req dto.AirdropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.fundingSvc.Airdrop(c.Request.Context(), address, req.Lamports)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAccountResponse(account))
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		Address:  a.Address.String(),
		Lamports: a.Lamports,
		DataLen:  a.DataLen,
	}
}
