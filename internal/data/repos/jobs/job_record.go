package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	maxInParams      = 500
)

type JobRecordFilter struct {
	DerivedConceptID *uint
	Status           types.JobStatus
	BatchID          *uuid.UUID
	Limit            int
}

type JobRecordRepo interface {
	CreateBatch(dbc dbctx.Context, records []*types.JobRecord) ([]*types.JobRecord, error)
	GetByID(dbc dbctx.Context, id uint) (*types.JobRecord, error)
	// GetLatestCompletedByDerivedConceptIDs returns, per concept, the COMPLETED
	// record with the greatest completed_on. Concepts without one are absent.
	GetLatestCompletedByDerivedConceptIDs(dbc dbctx.Context, ids []uint) (map[uint]*types.JobRecord, error)
	List(dbc dbctx.Context, filter JobRecordFilter) ([]*types.JobRecord, error)
	// TransitionFromPending moves a PENDING record to status. Records in any
	// other state yield ErrConflict.
	TransitionFromPending(dbc dbctx.Context, id uint, status types.JobStatus, completedOn time.Time, errorStack string) (*types.JobRecord, error)
}

type jobRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRecordRepo(db *gorm.DB, baseLog *logger.Logger) JobRecordRepo {
	repoLog := baseLog.With("repo", "JobRecordRepo")
	return &jobRecordRepo{db: db, log: repoLog}
}

func (r *jobRecordRepo) CreateBatch(dbc dbctx.Context, records []*types.JobRecord) ([]*types.JobRecord, error) {
	if len(records) == 0 {
		return []*types.JobRecord{}, nil
	}
	if err := dbc.Conn(r.db).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *jobRecordRepo) GetByID(dbc dbctx.Context, id uint) (*types.JobRecord, error) {
	var out types.JobRecord
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, fmt.Errorf("%w: job record %d", apperrors.ErrNotFound, id)
	}
	return &out, nil
}

func (r *jobRecordRepo) GetLatestCompletedByDerivedConceptIDs(dbc dbctx.Context, ids []uint) (map[uint]*types.JobRecord, error) {
	out := map[uint]*types.JobRecord{}
	for _, chunk := range lo.Chunk(lo.Uniq(ids), maxInParams) {
		var rows []*types.JobRecord
		err := dbc.Conn(r.db).
			Table("derived_concept_job AS j").
			Select("j.*").
			Where("j.derived_concept_id IN ?", chunk).
			Where("j.status = ?", types.JobStatusCompleted).
			Where("j.completed_on IS NOT NULL").
			Where("j.completed_on = (SELECT MAX(j2.completed_on) FROM derived_concept_job AS j2 WHERE j2.derived_concept_id = j.derived_concept_id AND j2.status = ?)", types.JobStatusCompleted).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		// Ties on completed_on resolve to the highest id.
		for _, rec := range rows {
			if cur, ok := out[rec.DerivedConceptID]; ok && cur.ID > rec.ID {
				continue
			}
			out[rec.DerivedConceptID] = rec
		}
	}
	return out, nil
}

func (r *jobRecordRepo) List(dbc dbctx.Context, filter JobRecordFilter) ([]*types.JobRecord, error) {
	q := dbc.Conn(r.db).Model(&types.JobRecord{})
	if filter.DerivedConceptID != nil {
		q = q.Where("derived_concept_id = ?", *filter.DerivedConceptID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.BatchID != nil {
		q = q.Where("batch_id = ?", *filter.BatchID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	var out []*types.JobRecord
	if err := q.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRecordRepo) TransitionFromPending(dbc dbctx.Context, id uint, status types.JobStatus, completedOn time.Time, errorStack string) (*types.JobRecord, error) {
	if status != types.JobStatusCompleted && status != types.JobStatusError {
		return nil, fmt.Errorf("%w: cannot transition job record to %q", apperrors.ErrInvalidArgument, status)
	}
	updates := map[string]interface{}{
		"status":       status,
		"completed_on": completedOn.UTC(),
	}
	if status == types.JobStatusError {
		updates["error_stack"] = errorStack
	}
	res := dbc.Conn(r.db).
		Model(&types.JobRecord{}).
		Where("id = ? AND status = ?", id, types.JobStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.GetByID(dbc, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: job record %d is %s, not %s", apperrors.ErrConflict, id, existing.Status, types.JobStatusPending)
	}
	return r.GetByID(dbc, id)
}
