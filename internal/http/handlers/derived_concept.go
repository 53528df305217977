package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/derivedconcept-backend/internal/http/response"
	"github.com/yungbote/derivedconcept-backend/internal/services"
)

type DerivedConceptHandler struct {
	concepts services.DerivedConceptService
}

func NewDerivedConceptHandler(concepts services.DerivedConceptService) *DerivedConceptHandler {
	return &DerivedConceptHandler{concepts: concepts}
}

// GET /api/derived-concepts
func (h *DerivedConceptHandler) List(c *gin.Context) {
	list, err := h.concepts.List(requestDBC(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"derived_concepts": list})
}

// GET /api/derived-concepts/:id
func (h *DerivedConceptHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	dc, err := h.concepts.Get(requestDBC(c), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"derived_concept": dc})
}

// POST /api/derived-concepts
func (h *DerivedConceptHandler) Create(c *gin.Context) {
	var in services.DerivedConceptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondServiceError(c, bindError(err))
		return
	}
	res, err := h.concepts.Create(requestDBC(c), in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"derived_concept": res.DerivedConcept, "warnings": warnings(res)})
}

// PUT /api/derived-concepts/:id
func (h *DerivedConceptHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var in services.DerivedConceptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondServiceError(c, bindError(err))
		return
	}
	res, err := h.concepts.Update(requestDBC(c), id, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"derived_concept": res.DerivedConcept, "warnings": warnings(res)})
}

// DELETE /api/derived-concepts/:id
func (h *DerivedConceptHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if err := h.concepts.Delete(requestDBC(c), id); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": id})
}

func warnings(res *services.DerivedConceptResult) []string {
	if res == nil || res.Warnings == nil {
		return []string{}
	}
	return res.Warnings
}
