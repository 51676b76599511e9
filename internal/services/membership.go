package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenflow/lumenflow-backend/internal/data/cache"
	"github.com/lumenflow/lumenflow-backend/internal/data/repos"
	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

type MembershipService interface {
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	RequireMember(ctx context.Context, teamID, userID uuid.UUID) error
}

type membershipService struct {
	log     *logger.Logger
	members repos.TeamMemberRepo
	cache   *cache.MembershipCache
}

// NewMembershipService answers team membership questions. The cache may be
// nil; the database remains the source of truth either way.
func NewMembershipService(baseLog *logger.Logger, members repos.TeamMemberRepo, c *cache.MembershipCache) MembershipService {
	return &membershipService{
		log:     baseLog.With("service", "MembershipService"),
		members: members,
		cache:   c,
	}
}

func (s *membershipService) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	if teamID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	if member, found := s.cache.Get(ctx, teamID, userID); found {
		return member, nil
	}
	member, err := s.members.IsMember(dbctx.Context{Ctx: ctx}, teamID, userID)
	if err != nil {
		return false, err
	}
	s.cache.Set(ctx, teamID, userID, member)
	return member, nil
}

func (s *membershipService) RequireMember(ctx context.Context, teamID, userID uuid.UUID) error {
	member, err := s.IsMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !member {
		return domainagg.NewError(domainagg.CodeNotAuthorized, "Membership.Require", "actor is not a member of this team", nil)
	}
	return nil
}
