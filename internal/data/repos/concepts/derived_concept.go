package concepts

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

type DerivedConceptRepo interface {
	Create(dbc dbctx.Context, concept *types.DerivedConcept) (*types.DerivedConcept, error)
	Update(dbc dbctx.Context, concept *types.DerivedConcept) (*types.DerivedConcept, error)
	Delete(dbc dbctx.Context, id uint) error
	GetByID(dbc dbctx.Context, id uint) (*types.DerivedConcept, error)
	GetByPath(dbc dbctx.Context, path string) (*types.DerivedConcept, error)
	GetByPaths(dbc dbctx.Context, paths []string) ([]*types.DerivedConcept, error)
	List(dbc dbctx.Context) ([]*types.DerivedConcept, error)
}

type derivedConceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDerivedConceptRepo(db *gorm.DB, baseLog *logger.Logger) DerivedConceptRepo {
	repoLog := baseLog.With("repo", "DerivedConceptRepo")
	return &derivedConceptRepo{db: db, log: repoLog}
}

func (r *derivedConceptRepo) Create(dbc dbctx.Context, concept *types.DerivedConcept) (*types.DerivedConcept, error) {
	if concept == nil {
		return nil, fmt.Errorf("%w: derived concept is nil", apperrors.ErrInvalidArgument)
	}
	now := time.Now().UTC()
	concept.ID = 0
	concept.UpdatedOn = now
	if concept.CreatedAt.IsZero() {
		concept.CreatedAt = now
	}
	if err := dbc.Conn(r.db).Create(concept).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: derived concept path %q already exists", apperrors.ErrConflict, concept.Path)
		}
		return nil, err
	}
	return concept, nil
}

func (r *derivedConceptRepo) Update(dbc dbctx.Context, concept *types.DerivedConcept) (*types.DerivedConcept, error) {
	if concept == nil || concept.ID == 0 {
		return nil, fmt.Errorf("%w: derived concept id is required", apperrors.ErrInvalidArgument)
	}
	concept.UpdatedOn = time.Now().UTC()
	res := dbc.Conn(r.db).
		Model(&types.DerivedConcept{}).
		Where("id = ?", concept.ID).
		Updates(map[string]interface{}{
			"path":        concept.Path,
			"code":        concept.Code,
			"query":       concept.Query,
			"unit":        concept.Unit,
			"description": concept.Description,
			"updated_on":  concept.UpdatedOn,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, fmt.Errorf("%w: derived concept path %q already exists", apperrors.ErrConflict, concept.Path)
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: derived concept %d", apperrors.ErrNotFound, concept.ID)
	}
	return r.GetByID(dbc, concept.ID)
}

func (r *derivedConceptRepo) Delete(dbc dbctx.Context, id uint) error {
	res := dbc.Conn(r.db).Where("id = ?", id).Delete(&types.DerivedConcept{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: derived concept %d", apperrors.ErrNotFound, id)
	}
	return nil
}

func (r *derivedConceptRepo) GetByID(dbc dbctx.Context, id uint) (*types.DerivedConcept, error) {
	var out types.DerivedConcept
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, fmt.Errorf("%w: derived concept %d", apperrors.ErrNotFound, id)
	}
	return &out, nil
}

func (r *derivedConceptRepo) GetByPath(dbc dbctx.Context, path string) (*types.DerivedConcept, error) {
	var out types.DerivedConcept
	if err := dbc.Conn(r.db).Where("path = ?", path).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, fmt.Errorf("%w: derived concept %q", apperrors.ErrNotFound, path)
	}
	return &out, nil
}

// GetByPaths returns the derived concepts among paths. Source-only paths
// have no row and are absent from the result.
func (r *derivedConceptRepo) GetByPaths(dbc dbctx.Context, paths []string) ([]*types.DerivedConcept, error) {
	out := []*types.DerivedConcept{}
	for _, chunk := range lo.Chunk(lo.Uniq(paths), maxInParams) {
		var rows []*types.DerivedConcept
		if err := dbc.Conn(r.db).Where("path IN ?", chunk).Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (r *derivedConceptRepo) List(dbc dbctx.Context) ([]*types.DerivedConcept, error) {
	var out []*types.DerivedConcept
	if err := dbc.Conn(r.db).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
