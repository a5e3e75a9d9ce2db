package dto

// SignedHeaders are the request-signature headers required on mutating routes.
type SignedHeaders struct {
	Signer    string `header:"X-Signer" binding:"required,pubkey"`
	Signature string `header:"X-Signature" binding:"required,max=128"`
	Timestamp int64  `header:"X-Timestamp" binding:"required"`
	Nonce     string `header:"X-Nonce" binding:"required,max=64,safe_id"`
}

// TransferRequest is the request body for a vault withdrawal. Amount is a
// pointer so that an explicit 0 passes "required".
type TransferRequest struct {
	Recipient string  `json:"recipient" binding:"required,pubkey"`
	Amount    *uint64 `json:"amount" binding:"required"`
}

// AirdropRequest is the request body for faucet funding.
type AirdropRequest struct {
	Lamports uint64 `json:"lamports" binding:"required,gt=0"`
}

// ListTransfersQuery binds the query string of the transfer history endpoint.
type ListTransfersQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// VaultResponse describes a vault address and, once initialized, its record.
type VaultResponse struct {
	Address   string  `json:"address"`
	Authority string  `json:"authority,omitempty"`
	Bump      uint8   `json:"bump"`
	Status    string  `json:"status"`
	Lamports  uint64  `json:"lamports"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// TransferResponse is the receipt of a committed transfer.
type TransferResponse struct {
	ID                string `json:"id"`
	Vault             string `json:"vault"`
	Authority         string `json:"authority"`
	Caller            string `json:"caller"`
	Recipient         string `json:"recipient"`
	Amount            uint64 `json:"amount"`
	VaultBalanceAfter uint64 `json:"vault_balance_after"`
	CreatedAt         string `json:"created_at"`
}

// TransferListResponse wraps a page of transfer receipts, newest first.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Count int                `json:"count"`
}

// AccountResponse is the balance held at an address.
type AccountResponse struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
	DataLen  int    `json:"data_len"`
}
