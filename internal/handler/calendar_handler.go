package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mramrohaleem/study/internal/dto"
	"github.com/mramrohaleem/study/internal/middleware"
	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
	"github.com/mramrohaleem/study/pkg/response"
)

type calendarService interface {
	State(ctx context.Context) (*models.State, error)
	Calendar(ctx context.Context, query dto.CalendarQuery) ([]models.StudyDay, error)
	SetRestDay(ctx context.Context, date string, req dto.RestDayRequest) (*models.StudyDay, error)
	SetCompletion(ctx context.Context, date string, req dto.CompletionRequest) (*models.CompletionChange, error)
	LogMinutes(ctx context.Context, date string, req dto.MinutesRequest) (*models.CompletionChange, error)
	Streak(ctx context.Context) (*models.StreakStats, bool, error)
	Week(ctx context.Context) (*models.WeekStats, bool, error)
	Settings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, req dto.SettingsRequest) (*models.Settings, error)
}

// CalendarHandler serves the study calendar, stats and settings.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs a calendar handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// State godoc
// @Summary Full planner snapshot
// @Tags Planner
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state [get]
func (h *CalendarHandler) State(c *gin.Context) {
	state, err := h.service.State(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// List godoc
// @Summary Study days in a date range
// @Tags Calendar
// @Produce json
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) List(c *gin.Context) {
	var query dto.CalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	days, err := h.service.Calendar(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, days, map[string]interface{}{"count": len(days)})
}

// SetRestDay godoc
// @Summary Flag or clear a rest day
// @Tags Calendar
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.RestDayRequest true "Rest day flag"
// @Success 200 {object} response.Envelope
// @Router /calendar/{date}/rest-day [put]
func (h *CalendarHandler) SetRestDay(c *gin.Context) {
	var req dto.RestDayRequest
	if !bindJSON(c, &req) {
		return
	}
	day, err := h.service.SetRestDay(c.Request.Context(), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, day)
}

// SetCompletion godoc
// @Summary Mark a planned lecture done or undone
// @Tags Calendar
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.CompletionRequest true "Completion toggle"
// @Success 200 {object} response.Envelope
// @Router /calendar/{date}/completions [post]
func (h *CalendarHandler) SetCompletion(c *gin.Context) {
	var req dto.CompletionRequest
	if !bindJSON(c, &req) {
		return
	}
	change, err := h.service.SetCompletion(c.Request.Context(), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, change)
}

// LogMinutes godoc
// @Summary Log focused study minutes
// @Tags Calendar
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.MinutesRequest true "Minutes studied"
// @Success 200 {object} response.Envelope
// @Router /calendar/{date}/minutes [post]
func (h *CalendarHandler) LogMinutes(c *gin.Context) {
	var req dto.MinutesRequest
	if !bindJSON(c, &req) {
		return
	}
	change, err := h.service.LogMinutes(c.Request.Context(), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, change)
}

// Streak godoc
// @Summary Current study streak
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/streak [get]
func (h *CalendarHandler) Streak(c *gin.Context) {
	stats, hit, err := h.service.Streak(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, stats, middleware.Meta(c))
}

// Week godoc
// @Summary Activity and adherence for the current week
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats/week [get]
func (h *CalendarHandler) Week(c *gin.Context) {
	stats, hit, err := h.service.Week(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, stats, middleware.Meta(c))
}

// Settings godoc
// @Summary Planner settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *CalendarHandler) Settings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// UpdateSettings godoc
// @Summary Replace planner settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.SettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Router /settings [put]
func (h *CalendarHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}
