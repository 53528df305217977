package services

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos"
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/domain/concepts"
	"github.com/yungbote/derivedconcept-backend/internal/modules/dependency"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
)

// CyclicDependencyWarning is returned alongside a saved concept that can no
// longer be ordered for calculation. The write itself still succeeds.
const CyclicDependencyWarning = "cyclic dependency"

type DerivedConceptInput struct {
	Path         string   `json:"path" binding:"required,conceptpath"`
	Code         string   `json:"code"`
	Query        string   `json:"query" binding:"required"`
	Unit         string   `json:"unit"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies" binding:"omitempty,dive,conceptpath"`
}

type DerivedConceptResult struct {
	*types.DerivedConcept
	Warnings []string `json:"warnings,omitempty"`
}

// DependencyMirror receives committed concept changes, e.g. a graph database
// kept alongside the SQL store.
type DependencyMirror interface {
	SyncConcept(ctx context.Context, previousPath string, concept *types.DerivedConcept, parents []string) error
	DeleteConcept(ctx context.Context, path string) error
}

type DerivedConceptService interface {
	Create(dbc dbctx.Context, in DerivedConceptInput) (*DerivedConceptResult, error)
	Update(dbc dbctx.Context, id uint, in DerivedConceptInput) (*DerivedConceptResult, error)
	Delete(dbc dbctx.Context, id uint) error
	Get(dbc dbctx.Context, id uint) (*types.DerivedConcept, error)
	List(dbc dbctx.Context) ([]*types.DerivedConcept, error)
}

type derivedConceptService struct {
	db       *gorm.DB
	log      *logger.Logger
	concepts repos.DerivedConceptRepo
	edges    repos.DependencyRepo
	expander *dependency.Expander
	mirror   DependencyMirror
}

func NewDerivedConceptService(
	db *gorm.DB,
	baseLog *logger.Logger,
	conceptRepo repos.DerivedConceptRepo,
	edgeRepo repos.DependencyRepo,
	mirror DependencyMirror,
) DerivedConceptService {
	return &derivedConceptService{
		db:       db,
		log:      baseLog.With("service", "DerivedConceptService"),
		concepts: conceptRepo,
		edges:    edgeRepo,
		expander: dependency.NewExpander(edgeRepo, baseLog),
		mirror:   mirror,
	}
}

// normalize validates in and returns its path and deduplicated parents.
func normalize(in DerivedConceptInput) (string, []string, error) {
	path, err := concepts.ParsePath(in.Path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	if in.Query == "" {
		return "", nil, fmt.Errorf("%w: query is required", apperrors.ErrInvalidArgument)
	}
	parents, err := concepts.ParsePaths(in.Dependencies)
	if err != nil {
		return "", nil, fmt.Errorf("%w: dependency: %v", apperrors.ErrInvalidArgument, err)
	}
	out := make([]string, 0, len(parents))
	for _, p := range parents {
		out = append(out, p.String())
	}
	return path.String(), out, nil
}

func (s *derivedConceptService) Create(dbc dbctx.Context, in DerivedConceptInput) (*DerivedConceptResult, error) {
	path, parents, err := normalize(in)
	if err != nil {
		return nil, err
	}

	var result *DerivedConceptResult
	err = s.db.WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		created, err := s.concepts.Create(inner, &types.DerivedConcept{
			Path:        path,
			Code:        in.Code,
			Query:       in.Query,
			Unit:        in.Unit,
			Description: in.Description,
		})
		if err != nil {
			return err
		}
		if _, err := s.edges.CreateEdges(inner, buildEdges(created, parents)); err != nil {
			return fmt.Errorf("create dependency edges: %w", err)
		}
		warnings, err := s.cycleWarnings(inner, created.Path)
		if err != nil {
			return err
		}
		created.Dependencies = parents
		result = &DerivedConceptResult{DerivedConcept: created, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.syncMirror(dbc.Context(), "", result.DerivedConcept, parents)
	s.log.Info("Derived concept created", "id", result.ID, "path", result.Path, "dependencies", len(parents), "warnings", result.Warnings)
	return result, nil
}

func (s *derivedConceptService) Update(dbc dbctx.Context, id uint, in DerivedConceptInput) (*DerivedConceptResult, error) {
	path, parents, err := normalize(in)
	if err != nil {
		return nil, err
	}

	var (
		result       *DerivedConceptResult
		previousPath string
	)
	err = s.db.WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		existing, err := s.concepts.GetByID(inner, id)
		if err != nil {
			return err
		}
		previousPath = existing.Path

		existing.Path = path
		existing.Code = in.Code
		existing.Query = in.Query
		existing.Unit = in.Unit
		existing.Description = in.Description
		updated, err := s.concepts.Update(inner, existing)
		if err != nil {
			return err
		}
		if previousPath != path {
			if err := s.edges.UpdateDerivedPath(inner, id, path); err != nil {
				return fmt.Errorf("rename dependency edges: %w", err)
			}
		}

		current, err := s.edges.GetByDerivedConceptIDs(inner, []uint{id})
		if err != nil {
			return err
		}
		currentParents := lo.Map(current, func(e *types.DependencyEdge, _ int) string { return e.ParentConceptPath })
		removed, added := lo.Difference(currentParents, parents)
		if err := s.edges.DeleteEdges(inner, id, removed); err != nil {
			return fmt.Errorf("delete dependency edges: %w", err)
		}
		if _, err := s.edges.CreateEdges(inner, buildEdges(updated, added)); err != nil {
			return fmt.Errorf("create dependency edges: %w", err)
		}

		warnings, err := s.cycleWarnings(inner, updated.Path)
		if err != nil {
			return err
		}
		updated.Dependencies = parents
		result = &DerivedConceptResult{DerivedConcept: updated, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.syncMirror(dbc.Context(), previousPath, result.DerivedConcept, parents)
	s.log.Info("Derived concept updated", "id", id, "path", result.Path, "renamed", previousPath != result.Path, "warnings", result.Warnings)
	return result, nil
}

func (s *derivedConceptService) Delete(dbc dbctx.Context, id uint) error {
	var path string
	err := s.db.WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		existing, err := s.concepts.GetByID(inner, id)
		if err != nil {
			return err
		}
		path = existing.Path
		if err := s.edges.DeleteByDerivedConceptID(inner, id); err != nil {
			return fmt.Errorf("delete dependency edges: %w", err)
		}
		return s.concepts.Delete(inner, id)
	})
	if err != nil {
		return err
	}
	if s.mirror != nil {
		if err := s.mirror.DeleteConcept(dbc.Context(), path); err != nil {
			s.log.Warn("Dependency mirror delete failed", "path", path, "error", err)
		}
	}
	s.log.Info("Derived concept deleted", "id", id, "path", path)
	return nil
}

func (s *derivedConceptService) Get(dbc dbctx.Context, id uint) (*types.DerivedConcept, error) {
	dc, err := s.concepts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachDependencies(dbc, []*types.DerivedConcept{dc}); err != nil {
		return nil, err
	}
	return dc, nil
}

func (s *derivedConceptService) List(dbc dbctx.Context) ([]*types.DerivedConcept, error) {
	all, err := s.concepts.List(dbc)
	if err != nil {
		return nil, err
	}
	if err := s.attachDependencies(dbc, all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *derivedConceptService) attachDependencies(dbc dbctx.Context, list []*types.DerivedConcept) error {
	if len(list) == 0 {
		return nil
	}
	ids := lo.Map(list, func(c *types.DerivedConcept, _ int) uint { return c.ID })
	edges, err := s.edges.GetByDerivedConceptIDs(dbc, ids)
	if err != nil {
		return fmt.Errorf("load dependency edges: %w", err)
	}
	byConcept := lo.GroupBy(edges, func(e *types.DependencyEdge) uint { return e.DerivedConceptID })
	for _, c := range list {
		c.Dependencies = lo.Map(byConcept[c.ID], func(e *types.DependencyEdge, _ int) string { return e.ParentConceptPath })
	}
	return nil
}

// cycleWarnings expands from path inside the open transaction so the check
// sees the edges just written.
func (s *derivedConceptService) cycleWarnings(dbc dbctx.Context, path string) ([]string, error) {
	h, err := s.expander.Expand(dbc, []*types.DependencyEdge{{DerivedConceptPath: path}})
	if err != nil {
		return nil, fmt.Errorf("check dependency cycle: %w", err)
	}
	if h.Empty() {
		return nil, nil
	}
	if res := dependency.Sort(h.Edges()); !res.Ordered(path) {
		return []string{CyclicDependencyWarning}, nil
	}
	return nil, nil
}

func (s *derivedConceptService) syncMirror(ctx context.Context, previousPath string, dc *types.DerivedConcept, parents []string) {
	if s.mirror == nil || dc == nil {
		return
	}
	if err := s.mirror.SyncConcept(ctx, previousPath, dc, parents); err != nil {
		s.log.Warn("Dependency mirror sync failed", "path", dc.Path, "error", err)
	}
}

func buildEdges(dc *types.DerivedConcept, parents []string) []*types.DependencyEdge {
	return lo.Map(parents, func(p string, _ int) *types.DependencyEdge {
		return &types.DependencyEdge{
			DerivedConceptID:   dc.ID,
			DerivedConceptPath: dc.Path,
			ParentConceptPath:  p,
		}
	})
}
