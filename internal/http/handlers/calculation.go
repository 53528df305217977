package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/http/response"
	"github.com/yungbote/derivedconcept-backend/internal/modules/dependency"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
	"github.com/yungbote/derivedconcept-backend/internal/services"
)

type CalculationHandler struct {
	calc services.CalculationService
}

func NewCalculationHandler(calc services.CalculationService) *CalculationHandler {
	return &CalculationHandler{calc: calc}
}

type calculateRequest struct {
	DerivedConceptID *uint `json:"derived_concept_id" binding:"omitempty,gt=0"`
}

// POST /api/calculations
// An empty body or a missing derived_concept_id schedules every concept.
func (h *CalculationHandler) Calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondServiceError(c, bindError(err))
		return
	}
	h.schedule(c, req.DerivedConceptID)
}

// POST /api/derived-concepts/:id/calculate
func (h *CalculationHandler) CalculateConcept(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.schedule(c, &id)
}

func (h *CalculationHandler) schedule(c *gin.Context, id *uint) {
	records, err := h.calc.Calculate(requestDBC(c), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, batchView(records))
}

// GET /api/dependency-hierarchies?concept_path=
func (h *CalculationHandler) DependencyHierarchies(c *gin.Context) {
	var only string
	if raw, ok := c.GetQuery("concept_path"); ok {
		p, err := types.ParseConceptPath(raw)
		if err != nil {
			response.RespondServiceError(c, fmt.Errorf("%w: concept_path: %v", apperrors.ErrInvalidArgument, err))
			return
		}
		only = p.String()
	}
	hs, err := h.calc.DependencyHierarchies(requestDBC(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out := make([]hierarchyView, 0, len(hs))
	for _, hier := range hs {
		if only != "" && !hier.HasPath(only) {
			continue
		}
		out = append(out, newHierarchyView(hier))
	}
	response.RespondOK(c, gin.H{"dependency_hierarchies": out})
}

type hierarchyView struct {
	Edges        []*types.DependencyEdge `json:"edges"`
	ConceptPaths []string                `json:"concept_paths"`
	Order        []string                `json:"order"`
	Cyclic       []string                `json:"cyclic"`
	HasCycle     bool                    `json:"has_cycle"`
}

func newHierarchyView(h *dependency.Hierarchy) hierarchyView {
	res := dependency.Sort(h.Edges())
	return hierarchyView{
		Edges:        h.Edges(),
		ConceptPaths: h.Paths(),
		Order:        res.OrderedPaths(),
		Cyclic:       res.UnorderedPaths(),
		HasCycle:     res.HasCycle(),
	}
}

func batchView(records []*types.JobRecord) gin.H {
	pending, failed := 0, 0
	for _, r := range records {
		switch r.Status {
		case types.JobStatusPending:
			pending++
		case types.JobStatusError:
			failed++
		}
	}
	out := gin.H{
		"job_records": records,
		"pending":     pending,
		"errors":      failed,
	}
	if len(records) > 0 {
		out["batch_id"] = records[0].BatchID
	}
	return out
}
