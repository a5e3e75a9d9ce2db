package service

import (
	"context"
	"errors"
	"testing"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports/mocks"
	"vault-custody/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReportingService_GetVault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vaultRepo := mocks.NewMockVaultRepository(ctrl)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	svc := NewReportingService(vaultRepo, accountRepo, mocks.NewMockTransferRepository(ctrl), testProgramID)

	authority := newKey(t)
	address, bump, _ := domain.DeriveVaultAddress(authority, testProgramID)
	record := &domain.VaultRecord{Address: address, Authority: authority, Bump: bump}

	vaultRepo.EXPECT().GetByAddress(gomock.Any(), address).Return(record, nil)
	accountRepo.EXPECT().Get(gomock.Any(), address).Return(&domain.Account{Address: address, Lamports: 42}, nil)

	view, err := svc.GetVault(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, domain.VaultStatusActive, view.Status)
	assert.Equal(t, record, view.Record)
	assert.Equal(t, bump, view.Bump)
	assert.Equal(t, uint64(42), view.Lamports)
}

func TestReportingService_GetVault_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vaultRepo := mocks.NewMockVaultRepository(ctrl)
	svc := NewReportingService(vaultRepo, mocks.NewMockAccountRepository(ctrl), mocks.NewMockTransferRepository(ctrl), testProgramID)

	vaultRepo.EXPECT().GetByAddress(gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := svc.GetVault(context.Background(), newKey(t))
	assert.True(t, apperror.HasCode(err, apperror.CodeVaultNotFound))
}

func TestReportingService_GetVaultByAuthority(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vaultRepo := mocks.NewMockVaultRepository(ctrl)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	svc := NewReportingService(vaultRepo, accountRepo, mocks.NewMockTransferRepository(ctrl), testProgramID)

	authority := newKey(t)
	address, bump, _ := domain.DeriveVaultAddress(authority, testProgramID)

	// Funded before initialization, like a devnet airdrop to the derived address.
	vaultRepo.EXPECT().GetByAddress(gomock.Any(), address).Return(nil, nil)
	accountRepo.EXPECT().Get(gomock.Any(), address).Return(&domain.Account{Address: address, Lamports: 7}, nil)

	view, err := svc.GetVaultByAuthority(context.Background(), authority)
	require.NoError(t, err)
	assert.Equal(t, address, view.Address)
	assert.Equal(t, bump, view.Bump)
	assert.Equal(t, domain.VaultStatusUninitialized, view.Status)
	assert.Nil(t, view.Record)
	assert.Equal(t, uint64(7), view.Lamports)
}

func TestReportingService_GetAccount_DBError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository(ctrl)
	svc := NewReportingService(mocks.NewMockVaultRepository(ctrl), accountRepo, mocks.NewMockTransferRepository(ctrl), testProgramID)

	accountRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := svc.GetAccount(context.Background(), newKey(t))
	assert.True(t, apperror.HasCode(err, "SYS_001"))
}

func TestReportingService_ListTransfers_ClampsLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{"default", 0, 20},
		{"negative", -5, 20},
		{"within range", 50, 50},
		{"capped", 1000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			transferRepo := mocks.NewMockTransferRepository(ctrl)
			svc := NewReportingService(mocks.NewMockVaultRepository(ctrl), mocks.NewMockAccountRepository(ctrl), transferRepo, testProgramID)

			vault := newKey(t)
			transferRepo.EXPECT().ListByVault(gomock.Any(), vault, tt.expected).Return([]domain.Transfer{{ID: uuid.New()}}, nil)

			list, err := svc.ListTransfers(context.Background(), vault, tt.limit)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}
