package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mramrohaleem/study/internal/dto"
	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
	"github.com/mramrohaleem/study/pkg/response"
)

type subjectService interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	CreateSubject(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error)
	UpdateSubject(ctx context.Context, id string, req dto.SubjectRequest) (*models.Subject, error)
	UpdateExamDate(ctx context.Context, id string, req dto.ExamDateRequest) (*models.ExamDateChange, error)
	Progress(ctx context.Context, id string) (*models.SubjectProgress, error)
	Outlook(ctx context.Context, id string) (*models.SubjectOutlook, error)
	PlanSubject(ctx context.Context, id string) (*dto.PlanResponse, error)
}

// SubjectHandler serves subject, progress and scheduling endpoints.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc subjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subjects)
}

// Get godoc
// @Summary Get subject by id
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.service.GetSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subject)
}

// Create godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body dto.SubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req dto.SubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Update godoc
// @Summary Update subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.SubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	var req dto.SubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.service.UpdateSubject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subject)
}

// UpdateExamDate godoc
// @Summary Move a subject's exam date
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.ExamDateRequest true "New exam date"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/exam-date [patch]
func (h *SubjectHandler) UpdateExamDate(c *gin.Context) {
	var req dto.ExamDateRequest
	if !bindJSON(c, &req) {
		return
	}
	change, err := h.service.UpdateExamDate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, change)
}

// Progress godoc
// @Summary Subject lecture progress
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/progress [get]
func (h *SubjectHandler) Progress(c *gin.Context) {
	progress, err := h.service.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, progress)
}

// Outlook godoc
// @Summary Subject at-risk outlook
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/outlook [get]
func (h *SubjectHandler) Outlook(c *gin.Context) {
	outlook, err := h.service.Outlook(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, outlook)
}

// Plan godoc
// @Summary Redistribute a subject's pending lectures
// @Tags Planner
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id}/plan [post]
func (h *SubjectHandler) Plan(c *gin.Context) {
	result, err := h.service.PlanSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
