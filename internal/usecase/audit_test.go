package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/repository"
)

func TestAuditQueryFiltersAndLimits(t *testing.T) {
	store := repository.NewMemoryAuditStore()
	ctx := context.Background()
	for i := range 5 {
		actor := "trader-1"
		if i%2 == 1 {
			actor = "admin"
		}
		_, err := store.Append(ctx, models.AuditLogEntry{ActorID: actor, Action: models.ActionOrderExecuted, TargetType: models.TargetOrder, TargetID: "o"})
		require.NoError(t, err)
	}
	uc := NewAuditUseCase(store)

	rows, err := uc.Query(ctx, models.AuditFilter{ActorID: "trader-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].Timestamp.After(rows[i-1].Timestamp))
	}

	rows, err = uc.Query(ctx, models.AuditFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = uc.Query(ctx, models.AuditFilter{From: time.Now(), To: time.Now().Add(-time.Hour)})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

type stubDirectory struct {
	created models.CreateUserRequest
}

func (s *stubDirectory) ListUsers(context.Context, int, int) ([]models.User, error) {
	return []models.User{{ID: "u1"}}, nil
}

func (s *stubDirectory) CreateUser(_ context.Context, req models.CreateUserRequest) (models.User, error) {
	s.created = req
	return models.User{ID: "u2", Name: req.Name, Email: req.Email, Role: req.Role}, nil
}

func TestCreateUserIsAudited(t *testing.T) {
	audit := repository.NewMemoryAuditStore()
	dir := &stubDirectory{}
	uc := NewUsersUseCase(dir, audit)

	u, err := uc.Create(context.Background(), "admin-7", models.CreateUserRequest{Name: "Ana", Email: "ana@example.org", Role: "trader"})
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)

	rows, err := NewAuditUseCase(audit).Query(context.Background(), models.AuditFilter{Action: models.ActionUserCreated})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "admin-7", rows[0].ActorID)
	assert.Equal(t, "u2", rows[0].TargetID)
}
