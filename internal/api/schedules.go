package api

import (
	"net/http"

	"github.com/deliverydesk/internal/auth"
	"github.com/deliverydesk/internal/scheduler"
	"github.com/gin-gonic/gin"
)

type scheduledReportRequest struct {
	Name       string         `json:"name" binding:"required,max=200"`
	DataSource string         `json:"dataSource" binding:"required"`
	Format     string         `json:"format" binding:"required"`
	Frequency  string         `json:"frequency" binding:"required,oneof=daily weekly monthly"`
	DayOfWeek  *int           `json:"dayOfWeek" binding:"omitempty,min=0,max=6"`
	DayOfMonth *int           `json:"dayOfMonth" binding:"omitempty,min=1,max=31"`
	TimeOfDay  string         `json:"timeOfDay"`
	Recipients []string       `json:"recipients" binding:"omitempty,dive,email"`
	Columns    []string       `json:"columns" binding:"omitempty,dive,required"`
	Filters    map[string]any `json:"filters"`
	Enabled    *bool          `json:"enabled"`
}

type scheduledReportPatch struct {
	Name       *string        `json:"name" binding:"omitempty,min=1,max=200"`
	DataSource *string        `json:"dataSource"`
	Format     *string        `json:"format"`
	Frequency  *string        `json:"frequency" binding:"omitempty,oneof=daily weekly monthly"`
	DayOfWeek  *int           `json:"dayOfWeek" binding:"omitempty,min=0,max=6"`
	DayOfMonth *int           `json:"dayOfMonth" binding:"omitempty,min=1,max=31"`
	TimeOfDay  *string        `json:"timeOfDay"`
	Recipients []string       `json:"recipients" binding:"omitempty,dive,email"`
	Columns    []string       `json:"columns" binding:"omitempty,dive,required"`
	Filters    map[string]any `json:"filters"`
	Enabled    *bool          `json:"enabled"`
}

func (s *Server) runScheduledReports(c *gin.Context) {
	summary, err := s.runner.RunDue(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) listScheduledReports(c *gin.Context) {
	page, limit := pagination(c)
	result, err := s.schedules.List(c.Request.Context(), auth.CurrentUser(c), page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) createScheduledReport(c *gin.Context) {
	var req scheduledReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	sr, err := s.schedules.Create(c.Request.Context(), auth.CurrentUser(c), scheduler.Definition{
		Name:       req.Name,
		DataSource: req.DataSource,
		Format:     req.Format,
		Frequency:  req.Frequency,
		DayOfWeek:  req.DayOfWeek,
		DayOfMonth: req.DayOfMonth,
		TimeOfDay:  req.TimeOfDay,
		Recipients: req.Recipients,
		Columns:    req.Columns,
		Filters:    req.Filters,
		Enabled:    req.Enabled,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sr)
}

func (s *Server) getScheduledReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	sr, err := s.schedules.Get(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sr)
}

func (s *Server) updateScheduledReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req scheduledReportPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	patch := scheduler.Patch{
		Name:       req.Name,
		DataSource: req.DataSource,
		Format:     req.Format,
		Frequency:  req.Frequency,
		DayOfWeek:  req.DayOfWeek,
		DayOfMonth: req.DayOfMonth,
		TimeOfDay:  req.TimeOfDay,
		Filters:    req.Filters,
		Enabled:    req.Enabled,
	}
	if req.Recipients != nil {
		patch.Recipients = &req.Recipients
	}
	if req.Columns != nil {
		patch.Columns = &req.Columns
	}

	sr, err := s.schedules.Update(c.Request.Context(), auth.CurrentUser(c), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sr)
}

func (s *Server) deleteScheduledReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.schedules.Delete(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scheduled report deleted successfully"})
}
