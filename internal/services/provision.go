package services

import (
	"strings"
	"time"

	"context"

	"github.com/google/uuid"

	dataagg "github.com/lumenflow/lumenflow-backend/internal/data/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/data/cache"
	"github.com/lumenflow/lumenflow-backend/internal/data/repos"
	"github.com/lumenflow/lumenflow-backend/internal/domain"
	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/ctxutil"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

// ProvisionService creates the containers work items live in. Team and
// stream creation sit outside the lifecycle engine; they only seed rows.
type ProvisionService interface {
	CreateTeam(ctx context.Context, name string) (*domain.Team, error)
	AddTeamMember(ctx context.Context, teamID, userID uuid.UUID, role string) (*domain.TeamMember, error)
	CreateStream(ctx context.Context, teamID uuid.UUID, name, description string) (*domain.Stream, error)
	GetTeam(ctx context.Context, teamID uuid.UUID) (*domain.Team, error)
}

type provisionService struct {
	log        *logger.Logger
	runner     dataagg.TxRunner
	teams      repos.TeamRepo
	members    repos.TeamMemberRepo
	streams    repos.StreamRepo
	membership MembershipService
	cache      *cache.MembershipCache
}

func NewProvisionService(
	baseLog *logger.Logger,
	runner dataagg.TxRunner,
	teams repos.TeamRepo,
	members repos.TeamMemberRepo,
	streams repos.StreamRepo,
	membership MembershipService,
	membershipCache *cache.MembershipCache,
) ProvisionService {
	return &provisionService{
		log:        baseLog.With("service", "ProvisionService"),
		runner:     runner,
		teams:      teams,
		members:    members,
		streams:    streams,
		membership: membership,
		cache:      membershipCache,
	}
}

func (s *provisionService) CreateTeam(ctx context.Context, name string) (*domain.Team, error) {
	const op = "Provision.CreateTeam"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.ActorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeNotAuthorized, op, "not authenticated", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "team name must not be empty", nil)
	}

	team := &domain.Team{ID: uuid.New(), Name: name}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.teams.Create(dbc, []*domain.Team{team}); err != nil {
			return err
		}
		// The creator joins their own team in the same commit.
		member := &domain.TeamMember{
			ID:       uuid.New(),
			TeamID:   team.ID,
			UserID:   rd.ActorID,
			Role:     domain.RoleOwner,
			JoinedAt: time.Now().UTC(),
		}
		_, err := s.members.Create(dbc, []*domain.TeamMember{member})
		return err
	})
	if err != nil {
		s.log.Warn("CreateTeam failed", "error", err, "actor_id", rd.ActorID)
		return nil, dataagg.MapError(op, err)
	}
	s.cache.Invalidate(ctx, team.ID, rd.ActorID)
	return team, nil
}

func (s *provisionService) AddTeamMember(ctx context.Context, teamID, userID uuid.UUID, role string) (*domain.TeamMember, error) {
	const op = "Provision.AddTeamMember"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.ActorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeNotAuthorized, op, "not authenticated", nil)
	}
	if teamID == uuid.Nil || userID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing team_id or user_id", nil)
	}
	if err := s.membership.RequireMember(ctx, teamID, rd.ActorID); err != nil {
		return nil, err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = domain.RoleMember
	}

	member := &domain.TeamMember{
		ID:       uuid.New(),
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		_, err := s.members.Create(dbc, []*domain.TeamMember{member})
		return err
	})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	s.cache.Invalidate(ctx, teamID, userID)
	return member, nil
}

func (s *provisionService) GetTeam(ctx context.Context, teamID uuid.UUID) (*domain.Team, error) {
	const op = "Provision.GetTeam"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.ActorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeNotAuthorized, op, "not authenticated", nil)
	}
	if teamID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing team_id", nil)
	}
	if err := s.membership.RequireMember(ctx, teamID, rd.ActorID); err != nil {
		return nil, err
	}
	team, err := s.teams.GetByID(dbctx.Context{Ctx: ctx}, teamID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return team, nil
}

func (s *provisionService) CreateStream(ctx context.Context, teamID uuid.UUID, name, description string) (*domain.Stream, error) {
	const op = "Provision.CreateStream"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.ActorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeNotAuthorized, op, "not authenticated", nil)
	}
	if teamID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing team_id", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "stream name must not be empty", nil)
	}
	if err := s.membership.RequireMember(ctx, teamID, rd.ActorID); err != nil {
		return nil, err
	}

	stream := &domain.Stream{
		ID:          uuid.New(),
		TeamID:      teamID,
		Name:        name,
		Description: strings.TrimSpace(description),
		State:       domain.StreamFlowing,
	}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		_, err := s.streams.Create(dbc, []*domain.Stream{stream})
		return err
	})
	if err != nil {
		s.log.Warn("CreateStream failed", "error", err, "team_id", teamID)
		return nil, dataagg.MapError(op, err)
	}
	return stream, nil
}
