package handler

import "github.com/gin-gonic/gin"

// Handlers groups the API handlers mounted under the API prefix.
type Handlers struct {
	Subjects *SubjectHandler
	Lectures *LectureHandler
	Calendar *CalendarHandler
	Exports  *ExportHandler
}

// RegisterRoutes mounts the planner API on group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers) {
	group.GET("/state", h.Calendar.State)

	subjects := group.Group("/subjects")
	subjects.GET("", h.Subjects.List)
	subjects.POST("", h.Subjects.Create)
	subjects.GET("/:id", h.Subjects.Get)
	subjects.PUT("/:id", h.Subjects.Update)
	subjects.PATCH("/:id/exam-date", h.Subjects.UpdateExamDate)
	subjects.GET("/:id/progress", h.Subjects.Progress)
	subjects.GET("/:id/outlook", h.Subjects.Outlook)
	subjects.POST("/:id/plan", h.Subjects.Plan)
	subjects.GET("/:id/lectures", h.Lectures.List)
	subjects.POST("/:id/lectures", h.Lectures.Create)
	subjects.GET("/:id/revision-passes", h.Lectures.ListPasses)
	subjects.POST("/:id/revision-passes", h.Lectures.CreatePass)

	group.PUT("/lectures/:id", h.Lectures.Update)

	passes := group.Group("/revision-passes")
	passes.PUT("/:id", h.Lectures.UpdatePass)
	passes.DELETE("/:id", h.Lectures.DeletePass)
	passes.POST("/:id/schedule", h.Lectures.SchedulePass)

	calendar := group.Group("/calendar")
	calendar.GET("", h.Calendar.List)
	calendar.PUT("/:date/rest-day", h.Calendar.SetRestDay)
	calendar.POST("/:date/completions", h.Calendar.SetCompletion)
	calendar.POST("/:date/minutes", h.Calendar.LogMinutes)

	group.GET("/stats/streak", h.Calendar.Streak)
	group.GET("/stats/week", h.Calendar.Week)
	group.GET("/settings", h.Calendar.Settings)
	group.PUT("/settings", h.Calendar.UpdateSettings)

	if h.Exports != nil {
		exports := group.Group("/exports")
		exports.POST("", h.Exports.Create)
		exports.GET("/download", h.Exports.Download)
		exports.GET("/:id", h.Exports.Get)
	}
}
