package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mramrohaleem/study/internal/dto"
	"github.com/mramrohaleem/study/internal/models"
	"github.com/mramrohaleem/study/pkg/response"
)

type lectureService interface {
	ListLectures(ctx context.Context, subjectID string) ([]models.Lecture, error)
	CreateLecture(ctx context.Context, subjectID string, req dto.LectureRequest) (*models.Lecture, error)
	UpdateLecture(ctx context.Context, id string, req dto.LectureRequest) (*models.Lecture, error)
	ListRevisionPasses(ctx context.Context, subjectID string) ([]models.RevisionPass, error)
	CreateRevisionPass(ctx context.Context, subjectID string, req dto.RevisionPassRequest) (*models.RevisionPass, error)
	UpdateRevisionPass(ctx context.Context, id string, req dto.RevisionPassRequest) (*models.RevisionPass, error)
	DeleteRevisionPass(ctx context.Context, id string) error
	ScheduleRevisionPass(ctx context.Context, id string) (*dto.RevisionScheduleResponse, error)
}

// LectureHandler serves lecture and revision pass endpoints.
type LectureHandler struct {
	service lectureService
}

// NewLectureHandler constructs a lecture handler.
func NewLectureHandler(svc lectureService) *LectureHandler {
	return &LectureHandler{service: svc}
}

// List godoc
// @Summary List a subject's lectures
// @Tags Lectures
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/lectures [get]
func (h *LectureHandler) List(c *gin.Context) {
	lectures, err := h.service.ListLectures(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lectures)
}

// Create godoc
// @Summary Add a lecture to a subject
// @Tags Lectures
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.LectureRequest true "Lecture payload"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/lectures [post]
func (h *LectureHandler) Create(c *gin.Context) {
	var req dto.LectureRequest
	if !bindJSON(c, &req) {
		return
	}
	lecture, err := h.service.CreateLecture(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecture)
}

// Update godoc
// @Summary Update a lecture
// @Tags Lectures
// @Accept json
// @Produce json
// @Param id path string true "Lecture ID"
// @Param payload body dto.LectureRequest true "Lecture payload"
// @Success 200 {object} response.Envelope
// @Router /lectures/{id} [put]
func (h *LectureHandler) Update(c *gin.Context) {
	var req dto.LectureRequest
	if !bindJSON(c, &req) {
		return
	}
	lecture, err := h.service.UpdateLecture(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lecture)
}

// ListPasses godoc
// @Summary List a subject's revision passes
// @Tags Revision
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/revision-passes [get]
func (h *LectureHandler) ListPasses(c *gin.Context) {
	passes, err := h.service.ListRevisionPasses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, passes)
}

// CreatePass godoc
// @Summary Add a revision pass
// @Tags Revision
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.RevisionPassRequest true "Revision pass payload"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/revision-passes [post]
func (h *LectureHandler) CreatePass(c *gin.Context) {
	var req dto.RevisionPassRequest
	if !bindJSON(c, &req) {
		return
	}
	pass, err := h.service.CreateRevisionPass(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pass)
}

// UpdatePass godoc
// @Summary Update a revision pass
// @Tags Revision
// @Accept json
// @Produce json
// @Param id path string true "Revision pass ID"
// @Param payload body dto.RevisionPassRequest true "Revision pass payload"
// @Success 200 {object} response.Envelope
// @Router /revision-passes/{id} [put]
func (h *LectureHandler) UpdatePass(c *gin.Context) {
	var req dto.RevisionPassRequest
	if !bindJSON(c, &req) {
		return
	}
	pass, err := h.service.UpdateRevisionPass(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pass)
}

// DeletePass godoc
// @Summary Delete a revision pass
// @Tags Revision
// @Param id path string true "Revision pass ID"
// @Success 204
// @Router /revision-passes/{id} [delete]
func (h *LectureHandler) DeletePass(c *gin.Context) {
	if err := h.service.DeleteRevisionPass(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SchedulePass godoc
// @Summary Place a revision pass on the calendar
// @Tags Revision
// @Produce json
// @Param id path string true "Revision pass ID"
// @Success 200 {object} response.Envelope
// @Router /revision-passes/{id}/schedule [post]
func (h *LectureHandler) SchedulePass(c *gin.Context) {
	result, err := h.service.ScheduleRevisionPass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
