package api

import (
	"net/http"

	"github.com/deliverydesk/internal/auth"
	"github.com/deliverydesk/internal/report"
	"github.com/gin-gonic/gin"
)

type dateRangeRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

type reportOptions struct {
	Recipients []string `json:"recipients" binding:"omitempty,dive,email"`
}

type createReportRequest struct {
	Title      string           `json:"title" binding:"required,max=200"`
	DataSource string           `json:"dataSource" binding:"required"`
	Format     string           `json:"format" binding:"required"`
	DateRange  dateRangeRequest `json:"dateRange"`
	Columns    []string         `json:"columns" binding:"omitempty,dive,required"`
	Filters    map[string]any   `json:"filters"`
	Options    *reportOptions   `json:"options"`
}

func (s *Server) createReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	manual := report.ManualRequest{
		Title:      req.Title,
		DataSource: req.DataSource,
		Format:     req.Format,
		StartDate:  req.DateRange.StartDate,
		EndDate:    req.DateRange.EndDate,
		Columns:    req.Columns,
		Filters:    req.Filters,
	}
	if req.Options != nil {
		manual.Recipients = req.Options.Recipients
	}

	out, err := s.reports.Create(c.Request.Context(), auth.CurrentUser(c), manual)
	if err != nil {
		s.respondError(c, err)
		return
	}

	body := gin.H{
		"success":  true,
		"reportId": out.Report.ID,
		"fileName": out.Artifact.FileName,
		"emailed":  out.Emailed,
	}
	if out.DeliveryErr != nil {
		body["deliveryError"] = out.DeliveryErr.Error()
	}
	c.JSON(http.StatusCreated, body)
}

func (s *Server) listReports(c *gin.Context) {
	page, limit := pagination(c)
	result, err := s.reports.List(c.Request.Context(), auth.CurrentUser(c), page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	rep, err := s.reports.Get(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) downloadReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	artifact, err := s.reports.Artifact(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.FileAttachment(artifact.Path, artifact.FileName)
}
