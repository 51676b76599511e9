package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumenflow/lumenflow-backend/internal/data/repos"
	"github.com/lumenflow/lumenflow-backend/internal/domain"
	domainagg "github.com/lumenflow/lumenflow-backend/internal/domain/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/observability"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/ctxutil"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/dbctx"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

// WorkItemView is the read model for a single item: the row plus its
// contributor roster and the total logged time including open timers.
type WorkItemView struct {
	Item                 *domain.WorkItem      `json:"item"`
	Contributors         []*domain.Contributor `json:"contributors"`
	TotalDurationSeconds int64                 `json:"totalDurationSeconds"`
}

// WorkItemService scopes every call to the actor's team before delegating
// writes to the lifecycle engine.
type WorkItemService interface {
	Create(ctx context.Context, in domainagg.CreateWorkItemInput) (*domain.WorkItem, error)
	Get(ctx context.Context, itemID uuid.UUID) (*WorkItemView, error)
	ListByStream(ctx context.Context, streamID uuid.UUID) ([]*domain.WorkItem, error)
	GetStream(ctx context.Context, streamID uuid.UUID) (*domain.Stream, error)
	Transition(ctx context.Context, itemID uuid.UUID, target domain.EnergyState) (domainagg.TransitionStateResult, error)
	SetEnergyLevel(ctx context.Context, itemID uuid.UUID, level int, explicitStateChange bool) (domainagg.UpdateEnergyLevelResult, error)
	AddContributor(ctx context.Context, itemID, userID uuid.UUID) (*domain.Contributor, error)
	RemoveContributor(ctx context.Context, itemID, userID uuid.UUID) (domainagg.RemoveContributorResult, error)
	StartTimer(ctx context.Context, itemID uuid.UUID, description string) (*domain.TimeEntry, error)
	StopTimer(ctx context.Context, itemID uuid.UUID) (*domain.TimeEntry, error)
	TotalDuration(ctx context.Context, itemID uuid.UUID) (int64, error)
	ListTimeEntries(ctx context.Context, itemID uuid.UUID) ([]*domain.TimeEntry, error)
	DeleteTimeEntry(ctx context.Context, entryID uuid.UUID) error
	Delete(ctx context.Context, itemID uuid.UUID) (domainagg.DeleteWorkItemResult, error)
}

type workItemService struct {
	log        *logger.Logger
	engine     domainagg.WorkItemAggregate
	membership MembershipService
	metrics    *observability.Metrics

	streams      repos.StreamRepo
	workItems    repos.WorkItemRepo
	contributors repos.ContributorRepo
	timeEntries  repos.TimeEntryRepo
}

func NewWorkItemService(
	baseLog *logger.Logger,
	engine domainagg.WorkItemAggregate,
	membership MembershipService,
	metrics *observability.Metrics,
	streams repos.StreamRepo,
	workItems repos.WorkItemRepo,
	contributors repos.ContributorRepo,
	timeEntries repos.TimeEntryRepo,
) WorkItemService {
	return &workItemService{
		log:          baseLog.With("service", "WorkItemService"),
		engine:       engine,
		membership:   membership,
		metrics:      metrics,
		streams:      streams,
		workItems:    workItems,
		contributors: contributors,
		timeEntries:  timeEntries,
	}
}

func (s *workItemService) actor(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.ActorID == uuid.Nil {
		return uuid.Nil, domainagg.NewError(domainagg.CodeNotAuthorized, "WorkItem.Actor", "not authenticated", nil)
	}
	return rd.ActorID, nil
}

// authorizeStream checks that the actor belongs to the stream's team.
func (s *workItemService) authorizeStream(ctx context.Context, streamID uuid.UUID, actorID uuid.UUID) (*domain.Stream, error) {
	streams, err := s.streams.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{streamID})
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return nil, domainagg.NewError(domainagg.CodeNotFound, "WorkItem.Authorize", fmt.Sprintf("stream not found: %s", streamID), nil)
	}
	if err := s.membership.RequireMember(ctx, streams[0].TeamID, actorID); err != nil {
		return nil, err
	}
	return streams[0], nil
}

// authorizeItem resolves the item and checks actor membership on its team.
// The engine re-checks state under the row lock; this check is only the
// request-level gate.
func (s *workItemService) authorizeItem(ctx context.Context, itemID uuid.UUID, actorID uuid.UUID) (*domain.WorkItem, error) {
	item, err := s.workItems.GetByID(dbctx.Context{Ctx: ctx}, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, "WorkItem.Authorize", fmt.Sprintf("work item not found: %s", itemID), nil)
	}
	if _, err := s.authorizeStream(ctx, item.StreamID, actorID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *workItemService) Create(ctx context.Context, in domainagg.CreateWorkItemInput) (*domain.WorkItem, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeStream(ctx, in.StreamID, actorID); err != nil {
		return nil, err
	}
	in.ActorID = actorID
	res, err := s.engine.CreateWorkItem(ctx, in)
	if err != nil {
		return nil, err
	}
	return res.Item, nil
}

func (s *workItemService) Get(ctx context.Context, itemID uuid.UUID) (*WorkItemView, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.authorizeItem(ctx, itemID, actorID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	contributors, err := s.contributors.ListByItem(dbc, item.ID)
	if err != nil {
		return nil, err
	}
	total, err := s.totalDuration(dbc, item.ID)
	if err != nil {
		return nil, err
	}
	return &WorkItemView{Item: item, Contributors: contributors, TotalDurationSeconds: total}, nil
}

func (s *workItemService) ListByStream(ctx context.Context, streamID uuid.UUID) ([]*domain.WorkItem, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeStream(ctx, streamID, actorID); err != nil {
		return nil, err
	}
	return s.workItems.ListByStream(dbctx.Context{Ctx: ctx}, streamID)
}

func (s *workItemService) GetStream(ctx context.Context, streamID uuid.UUID) (*domain.Stream, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.authorizeStream(ctx, streamID, actorID)
}

func (s *workItemService) Transition(ctx context.Context, itemID uuid.UUID, target domain.EnergyState) (domainagg.TransitionStateResult, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return domainagg.TransitionStateResult{}, err
	}
	item, err := s.authorizeItem(ctx, itemID, actorID)
	if err != nil {
		return domainagg.TransitionStateResult{}, err
	}
	res, err := s.engine.TransitionState(ctx, domainagg.TransitionStateInput{
		ActorID:     actorID,
		WorkItemID:  itemID,
		TargetState: target,
	})
	if err == nil && !res.NoOp {
		s.metrics.IncTransition(string(item.EnergyState), string(target))
	}
	return res, err
}

func (s *workItemService) SetEnergyLevel(ctx context.Context, itemID uuid.UUID, level int, explicitStateChange bool) (domainagg.UpdateEnergyLevelResult, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return domainagg.UpdateEnergyLevelResult{}, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return domainagg.UpdateEnergyLevelResult{}, err
	}
	res, err := s.engine.UpdateEnergyLevel(ctx, domainagg.UpdateEnergyLevelInput{
		ActorID:                      actorID,
		WorkItemID:                   itemID,
		Level:                        level,
		ExplicitStateChangeRequested: explicitStateChange,
	})
	if err == nil && res.AutoTransitioned {
		s.metrics.IncTransition(string(domain.StateKindling), string(domain.StateBlazing))
	}
	return res, err
}

func (s *workItemService) AddContributor(ctx context.Context, itemID, userID uuid.UUID) (*domain.Contributor, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return nil, err
	}
	res, err := s.engine.AddContributor(ctx, domainagg.AddContributorInput{
		ActorID:      actorID,
		WorkItemID:   itemID,
		TargetUserID: userID,
	})
	if err != nil {
		return nil, err
	}
	return res.Contributor, nil
}

func (s *workItemService) RemoveContributor(ctx context.Context, itemID, userID uuid.UUID) (domainagg.RemoveContributorResult, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return domainagg.RemoveContributorResult{}, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return domainagg.RemoveContributorResult{}, err
	}
	return s.engine.RemoveContributor(ctx, domainagg.RemoveContributorInput{
		ActorID:      actorID,
		WorkItemID:   itemID,
		TargetUserID: userID,
	})
}

func (s *workItemService) StartTimer(ctx context.Context, itemID uuid.UUID, description string) (*domain.TimeEntry, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return nil, err
	}
	res, err := s.engine.StartTimer(ctx, domainagg.StartTimerInput{
		ActorID:     actorID,
		WorkItemID:  itemID,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTimerStarted()
	return res.Entry, nil
}

func (s *workItemService) StopTimer(ctx context.Context, itemID uuid.UUID) (*domain.TimeEntry, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return nil, err
	}
	res, err := s.engine.StopTimer(ctx, domainagg.StopTimerInput{
		ActorID:    actorID,
		WorkItemID: itemID,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTimerStopped()
	return res.Entry, nil
}

func (s *workItemService) TotalDuration(ctx context.Context, itemID uuid.UUID) (int64, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return 0, err
	}
	return s.totalDuration(dbctx.Context{Ctx: ctx}, itemID)
}

func (s *workItemService) ListTimeEntries(ctx context.Context, itemID uuid.UUID) ([]*domain.TimeEntry, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return nil, err
	}
	return s.timeEntries.ListByItem(dbctx.Context{Ctx: ctx}, itemID)
}

// totalDuration sums closed entries and adds elapsed time for open ones.
// Open entries are valued at read time, never persisted.
func (s *workItemService) totalDuration(dbc dbctx.Context, itemID uuid.UUID) (int64, error) {
	total, err := s.timeEntries.SumStoppedSeconds(dbc, itemID)
	if err != nil {
		return 0, err
	}
	open, err := s.timeEntries.ListOpenByItem(dbc, itemID)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	for _, entry := range open {
		elapsed := int64(now.Sub(entry.StartedAt) / time.Second)
		if elapsed > 0 {
			total += elapsed
		}
	}
	return total, nil
}

func (s *workItemService) DeleteTimeEntry(ctx context.Context, entryID uuid.UUID) error {
	actorID, err := s.actor(ctx)
	if err != nil {
		return err
	}
	entry, err := s.timeEntries.GetByID(dbctx.Context{Ctx: ctx}, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return domainagg.NewError(domainagg.CodeNotFound, "WorkItem.DeleteTimeEntry", fmt.Sprintf("time entry not found: %s", entryID), nil)
	}
	if _, err := s.authorizeItem(ctx, entry.WorkItemID, actorID); err != nil {
		return err
	}
	_, err = s.engine.DeleteTimeEntry(ctx, domainagg.DeleteTimeEntryInput{
		ActorID: actorID,
		EntryID: entryID,
	})
	return err
}

func (s *workItemService) Delete(ctx context.Context, itemID uuid.UUID) (domainagg.DeleteWorkItemResult, error) {
	actorID, err := s.actor(ctx)
	if err != nil {
		return domainagg.DeleteWorkItemResult{}, err
	}
	if _, err := s.authorizeItem(ctx, itemID, actorID); err != nil {
		return domainagg.DeleteWorkItemResult{}, err
	}
	return s.engine.DeleteWorkItem(ctx, domainagg.DeleteWorkItemInput{
		ActorID:    actorID,
		WorkItemID: itemID,
	})
}
