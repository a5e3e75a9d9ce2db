package service

import (
	"context"
	"testing"
	"time"

	"vault-custody/internal/core/domain"
	"vault-custody/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, zerolog.Nop())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			if log.Action != domain.AuditActionTransfer {
				t.Errorf("expected TRANSFER, got %s", log.Action)
			}
			close(done)
			return nil
		},
	)

	signer := newKey(t).String()
	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Signer:       &signer,
		Action:       domain.AuditActionTransfer,
		ResourceType: "vault",
		ResourceID:   newKey(t).String(),
		Status:       403,
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, zerolog.Nop())

	// Should not panic
	svc.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Action:       domain.AuditActionCreateVault,
		ResourceType: "vault",
		Status:       201,
		IPAddress:    "127.0.0.1",
		CreatedAt:    time.Now(),
	})

	time.Sleep(50 * time.Millisecond) // let goroutine run
}
