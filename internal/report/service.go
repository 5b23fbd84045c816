package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"github.com/deliverydesk/internal/notify"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dispatcher mails a rendered artifact.
type Dispatcher interface {
	Dispatch(ctx context.Context, a notify.Attachment, recipients []string) error
}

// ManualRequest is a one-off export as submitted by a user.
type ManualRequest struct {
	Title      string
	DataSource string
	Format     string
	StartDate  string
	EndDate    string
	Columns    []string
	Filters    map[string]any
	Recipients []string
}

// Outcome is the result of a manual export.
type Outcome struct {
	Report   *models.Report
	Artifact *models.RenderedArtifact
	Emailed  bool
	// DeliveryErr is set when rendering succeeded but mailing did not.
	DeliveryErr error
}

// Page is one page of a report listing.
type Page struct {
	Items []models.Report `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// Service handles one-off report exports.
type Service struct {
	db         *gorm.DB
	generator  *ReportGenerator
	dispatcher Dispatcher
	loc        *time.Location
	logger     *slog.Logger
}

func NewService(db *gorm.DB, generator *ReportGenerator, dispatcher Dispatcher, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:         db,
		generator:  generator,
		dispatcher: dispatcher,
		loc:        loc,
		logger:     logger.With("component", "reports"),
	}
}

// Create records the report, renders it synchronously and mails it when
// recipients were requested.
func (s *Service) Create(ctx context.Context, actor *models.User, req ManualRequest) (*Outcome, error) {
	if !actor.HasPermission(models.PermReportsCreate) {
		return nil, &errs.PermissionError{Action: models.PermReportsCreate}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errs.Invalid("title", "is required")
	}
	source, err := models.ParseDataSource(req.DataSource)
	if err != nil {
		return nil, err
	}
	format, err := models.ParseReportFormat(req.Format)
	if err != nil {
		return nil, err
	}
	dateRange, err := ParseDateRange(req.StartDate, req.EndDate, s.loc)
	if err != nil {
		return nil, err
	}

	rep := &models.Report{
		Title:      title,
		DataSource: source,
		Format:     format,
		StartDate:  dateRange.Start.UTC(),
		EndDate:    dateRange.End.UTC(),
		Columns:    req.Columns,
		Filters:    datatypes.JSONMap(req.Filters),
		OwnerID:    actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(rep).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	artifact, err := s.generator.Generate(ctx, Request{
		Title:    title,
		Source:   source,
		Format:   format,
		Range:    dateRange,
		Columns:  req.Columns,
		Filters:  Filters(req.Filters),
		ReportID: &rep.ID,
	})
	if err != nil {
		if delErr := s.db.WithContext(ctx).Delete(&models.Report{}, rep.ID).Error; delErr != nil {
			s.logger.Warn("failed to remove unrendered report", "report_id", rep.ID, "error", delErr)
		}
		return nil, err
	}

	rep.FilePath = artifact.Path
	if err := s.db.WithContext(ctx).Model(rep).Update("file_path", artifact.Path).Error; err != nil {
		return nil, fmt.Errorf("failed to store report path: %w", err)
	}

	out := &Outcome{Report: rep, Artifact: artifact}
	if len(notify.MergeRecipients(req.Recipients)) == 0 {
		return out, nil
	}

	attachment := notify.Attachment{
		ArtifactID: artifact.ID,
		Title:      title,
		Path:       artifact.Path,
		FileName:   artifact.FileName,
	}
	if err := s.dispatcher.Dispatch(ctx, attachment, notify.MergeRecipients(req.Recipients, []string{actor.Email})); err != nil {
		s.logger.Warn("report rendered but not delivered", "report_id", rep.ID, "error", err)
		out.DeliveryErr = err
		return out, nil
	}
	out.Emailed = true
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor *models.User, id uint) (*models.Report, error) {
	if !actor.HasPermission(models.PermReportsView) {
		return nil, &errs.PermissionError{Action: models.PermReportsView}
	}
	var rep models.Report
	if err := s.db.WithContext(ctx).First(&rep, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Resource: "report", ID: id}
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if !actor.IsAdmin() && rep.OwnerID != actor.ID {
		return nil, &errs.PermissionError{Action: models.PermReportsView}
	}
	return &rep, nil
}

// List returns the actor's reports newest first; administrators see all.
func (s *Service) List(ctx context.Context, actor *models.User, page, limit int) (*Page, error) {
	if !actor.HasPermission(models.PermReportsView) {
		return nil, &errs.PermissionError{Action: models.PermReportsView}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if !actor.IsAdmin() {
		query = query.Where("owner_id = ?", actor.ID)
	}

	result := &Page{Page: page, Limit: limit, Items: []models.Report{}}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	if err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return result, nil
}

// Artifact returns the rendered file of a report.
func (s *Service) Artifact(ctx context.Context, actor *models.User, id uint) (*models.RenderedArtifact, error) {
	rep, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	var artifact models.RenderedArtifact
	if err := s.db.WithContext(ctx).
		Where("report_id = ?", rep.ID).
		Order("id DESC").
		First(&artifact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Resource: "report file", ID: id}
		}
		return nil, fmt.Errorf("failed to load report file: %w", err)
	}
	return &artifact, nil
}
