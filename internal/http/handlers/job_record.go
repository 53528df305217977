package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/derivedconcept-backend/internal/data/repos"
	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/http/response"
	apperrors "github.com/yungbote/derivedconcept-backend/internal/pkg/errors"
	"github.com/yungbote/derivedconcept-backend/internal/services"
)

type JobRecordHandler struct {
	records services.JobRecordService
}

func NewJobRecordHandler(records services.JobRecordService) *JobRecordHandler {
	return &JobRecordHandler{records: records}
}

// GET /api/job-records?derived_concept_id=&status=&batch_id=&limit=
func (h *JobRecordHandler) List(c *gin.Context) {
	filter, err := jobRecordFilter(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	rows, err := h.records.List(requestDBC(c), filter)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job_records": rows})
}

// GET /api/job-records/:id
func (h *JobRecordHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	rec, err := h.records.Get(requestDBC(c), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job_record": rec})
}

type completeRequest struct {
	CompletedOn *time.Time `json:"completed_on"`
}

// POST /api/job-records/:id/complete
func (h *JobRecordHandler) Complete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req completeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondServiceError(c, bindError(err))
			return
		}
	}
	rec, err := h.records.Complete(requestDBC(c), id, req.CompletedOn)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job_record": rec})
}

type failRequest struct {
	ErrorStack string `json:"error_stack" binding:"required"`
}

// POST /api/job-records/:id/error
func (h *JobRecordHandler) Fail(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req failRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondServiceError(c, bindError(err))
		return
	}
	rec, err := h.records.Fail(requestDBC(c), id, req.ErrorStack)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job_record": rec})
}

func jobRecordFilter(c *gin.Context) (repos.JobRecordFilter, error) {
	var f repos.JobRecordFilter
	if raw := c.Query("derived_concept_id"); raw != "" {
		id, err := parseID(raw, "derived_concept_id")
		if err != nil {
			return f, err
		}
		f.DerivedConceptID = &id
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		f.Status = types.JobStatus(strings.ToUpper(raw))
	}
	if raw := strings.TrimSpace(c.Query("batch_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fmt.Errorf("%w: batch_id: %v", apperrors.ErrInvalidArgument, err)
		}
		f.BatchID = &id
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: limit must be a non-negative integer", apperrors.ErrInvalidArgument)
		}
		f.Limit = n
	}
	return f, nil
}
