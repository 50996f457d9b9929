package usecase

import (
	"context"
	"fmt"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	applogger "CarbonDesk/pkg/logger"
)

// UsersUseCase fronts the external user directory and audits changes made through it.
type UsersUseCase struct {
	dir   domrepo.UserDirectory
	audit domrepo.AuditStore
	l     *applogger.Logger
}

func NewUsersUseCase(dir domrepo.UserDirectory, audit domrepo.AuditStore) *UsersUseCase {
	return &UsersUseCase{dir: dir, audit: audit}
}

// SetLogger injects a structured logger.
func (uc *UsersUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

func (uc *UsersUseCase) List(ctx context.Context, page, pageSize int) ([]models.User, error) {
	users, err := uc.dir.ListUsers(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create forwards the request and records a user.created entry for actorID.
// The user exists upstream even when the audit append fails; that failure is returned.
func (uc *UsersUseCase) Create(ctx context.Context, actorID string, req models.CreateUserRequest) (models.User, error) {
	u, err := uc.dir.CreateUser(ctx, req)
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	_, err = uc.audit.Append(ctx, models.AuditLogEntry{
		ActorID:    actorID,
		Action:     models.ActionUserCreated,
		TargetType: models.TargetUser,
		TargetID:   u.ID,
		Detail:     fmt.Sprintf("email=%s role=%s", u.Email, u.Role),
	})
	if err != nil {
		if uc.l != nil {
			uc.l.Error("user created but audit append failed", applogger.String("user_id", u.ID), applogger.Error(err))
		}
		return u, fmt.Errorf("create user %s: audit: %w", u.ID, err)
	}
	return u, nil
}
