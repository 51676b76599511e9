package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	dataagg "github.com/lumenflow/lumenflow-backend/internal/data/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/data/repos"
	"github.com/lumenflow/lumenflow-backend/internal/domain"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

// UserService provisions local user rows for identities minted by the
// external auth system.
type UserService interface {
	// EnsureUser creates the row on first sight of a verified identity.
	EnsureUser(ctx context.Context, id uuid.UUID, email, displayName string) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
}

type userService struct {
	log    *logger.Logger
	runner dataagg.TxRunner
	users  repos.UserRepo
}

func NewUserService(baseLog *logger.Logger, runner dataagg.TxRunner, users repos.UserRepo) UserService {
	return &userService{
		log:    baseLog.With("service", "UserService"),
		runner: runner,
		users:  users,
	}
}

func (s *userService) EnsureUser(ctx context.Context, id uuid.UUID, email, displayName string) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing user id")
	}
	existing, err := s.users.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	email = strings.TrimSpace(email)
	if email == "" {
		email = id.String() + "@unresolved.local"
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		_, err := s.users.Create(dbc, []*domain.User{{
			ID:          id,
			Email:       email,
			DisplayName: displayName,
		}})
		return err
	})
	if err != nil {
		// A concurrent first request may have won the insert.
		if dataagg.IsUniqueViolation(err) {
			return nil
		}
		return err
	}
	s.log.Info("provisioned user", "user_id", id)
	return nil
}

func (s *userService) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	return s.users.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
}
