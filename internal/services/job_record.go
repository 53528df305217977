package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos"
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/observability"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

// JobRecordService is the execution engine's side of the job lifecycle:
// it reports outcomes for records the scheduler left PENDING.
type JobRecordService interface {
	Get(dbc dbctx.Context, id uint) (*types.JobRecord, error)
	List(dbc dbctx.Context, filter repos.JobRecordFilter) ([]*types.JobRecord, error)
	// Complete marks a PENDING record COMPLETED. completedOn defaults to now.
	Complete(dbc dbctx.Context, id uint, completedOn *time.Time) (*types.JobRecord, error)
	// Fail marks a PENDING record ERROR with errorStack.
	Fail(dbc dbctx.Context, id uint, errorStack string) (*types.JobRecord, error)
}

type jobRecordService struct {
	log    *logger.Logger
	repo   repos.JobRecordRepo
	notify JobNotifier
	now    func() time.Time
}

func NewJobRecordService(baseLog *logger.Logger, repo repos.JobRecordRepo, notify JobNotifier) JobRecordService {
	if notify == nil {
		notify = NewNoopJobNotifier()
	}
	return &jobRecordService{
		log:    baseLog.With("service", "JobRecordService"),
		repo:   repo,
		notify: notify,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *jobRecordService) Get(dbc dbctx.Context, id uint) (*types.JobRecord, error) {
	return s.repo.GetByID(dbc, id)
}

func (s *jobRecordService) List(dbc dbctx.Context, filter repos.JobRecordFilter) ([]*types.JobRecord, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidArgument, filter.Status)
	}
	return s.repo.List(dbc, filter)
}

func (s *jobRecordService) Complete(dbc dbctx.Context, id uint, completedOn *time.Time) (*types.JobRecord, error) {
	at := s.now()
	if completedOn != nil && !completedOn.IsZero() {
		at = completedOn.UTC()
	}
	rec, err := s.repo.TransitionFromPending(dbc, id, types.JobStatusCompleted, at, "")
	s.observe(types.JobStatusCompleted, err)
	if err != nil {
		return nil, err
	}
	s.notify.JobRecordCompleted(dbc.Context(), rec)
	s.log.Info("Job record completed", "job_record_id", id, "derived_concept_id", rec.DerivedConceptID)
	return rec, nil
}

func (s *jobRecordService) Fail(dbc dbctx.Context, id uint, errorStack string) (*types.JobRecord, error) {
	errorStack = strings.TrimSpace(errorStack)
	if errorStack == "" {
		return nil, fmt.Errorf("%w: error stack is required", apperrors.ErrInvalidArgument)
	}
	rec, err := s.repo.TransitionFromPending(dbc, id, types.JobStatusError, s.now(), errorStack)
	s.observe(types.JobStatusError, err)
	if err != nil {
		return nil, err
	}
	s.notify.JobRecordFailed(dbc.Context(), rec)
	s.log.Warn("Job record failed", "job_record_id", id, "derived_concept_id", rec.DerivedConceptID)
	return rec, nil
}

func (s *jobRecordService) observe(status types.JobStatus, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	observability.Current().IncJobTransition(string(status), outcome)
}
