package concepts

import (
	"github.com/samber/lo"
	"gorm.io/gorm"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

// maxInParams keeps IN lists below driver bind limits (sqlite: 999).
// GetEdges binds each chunk twice.
const maxInParams = 400

type DependencyRepo interface {
	// GetEdges returns every edge whose parent or derived path is in paths.
	GetEdges(dbc dbctx.Context, paths []string) ([]*types.DependencyEdge, error)
	GetAllEdges(dbc dbctx.Context) ([]*types.DependencyEdge, error)
	GetByDerivedConceptIDs(dbc dbctx.Context, ids []uint) ([]*types.DependencyEdge, error)
	CreateEdges(dbc dbctx.Context, edges []*types.DependencyEdge) ([]*types.DependencyEdge, error)
	DeleteEdges(dbc dbctx.Context, derivedConceptID uint, parentPaths []string) error
	DeleteByDerivedConceptID(dbc dbctx.Context, derivedConceptID uint) error
	UpdateDerivedPath(dbc dbctx.Context, derivedConceptID uint, newPath string) error
}

type dependencyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDependencyRepo(db *gorm.DB, baseLog *logger.Logger) DependencyRepo {
	repoLog := baseLog.With("repo", "DependencyRepo")
	return &dependencyRepo{db: db, log: repoLog}
}

func (r *dependencyRepo) GetEdges(dbc dbctx.Context, paths []string) ([]*types.DependencyEdge, error) {
	out := []*types.DependencyEdge{}
	if len(paths) == 0 {
		return out, nil
	}
	seen := map[uint]bool{}
	for _, chunk := range lo.Chunk(lo.Uniq(paths), maxInParams) {
		var rows []*types.DependencyEdge
		if err := dbc.Conn(r.db).
			Where("parent_concept_path IN ? OR derived_concept_path IN ?", chunk, chunk).
			Order("id ASC").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, e := range rows {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *dependencyRepo) GetAllEdges(dbc dbctx.Context) ([]*types.DependencyEdge, error) {
	var out []*types.DependencyEdge
	if err := dbc.Conn(r.db).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dependencyRepo) GetByDerivedConceptIDs(dbc dbctx.Context, ids []uint) ([]*types.DependencyEdge, error) {
	out := []*types.DependencyEdge{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("derived_concept_id IN ?", ids).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dependencyRepo) CreateEdges(dbc dbctx.Context, edges []*types.DependencyEdge) ([]*types.DependencyEdge, error) {
	if len(edges) == 0 {
		return []*types.DependencyEdge{}, nil
	}
	if err := dbc.Conn(r.db).Create(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *dependencyRepo) DeleteEdges(dbc dbctx.Context, derivedConceptID uint, parentPaths []string) error {
	if len(parentPaths) == 0 {
		return nil
	}
	return dbc.Conn(r.db).
		Where("derived_concept_id = ? AND parent_concept_path IN ?", derivedConceptID, parentPaths).
		Delete(&types.DependencyEdge{}).Error
}

func (r *dependencyRepo) DeleteByDerivedConceptID(dbc dbctx.Context, derivedConceptID uint) error {
	return dbc.Conn(r.db).
		Where("derived_concept_id = ?", derivedConceptID).
		Delete(&types.DependencyEdge{}).Error
}

func (r *dependencyRepo) UpdateDerivedPath(dbc dbctx.Context, derivedConceptID uint, newPath string) error {
	return dbc.Conn(r.db).
		Model(&types.DependencyEdge{}).
		Where("derived_concept_id = ?", derivedConceptID).
		Update("derived_concept_path", newPath).Error
}
