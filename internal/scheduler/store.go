package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Definition is the user-supplied part of a scheduled report.
type Definition struct {
	Name       string
	DataSource string
	Format     string
	Frequency  string
	DayOfWeek  *int
	DayOfMonth *int
	TimeOfDay  string
	Recipients []string
	Columns    []string
	Filters    map[string]any
	Enabled    *bool
}

// Patch changes only the fields that are set.
type Patch struct {
	Name       *string
	DataSource *string
	Format     *string
	Frequency  *string
	DayOfWeek  *int
	DayOfMonth *int
	TimeOfDay  *string
	Recipients *[]string
	Columns    *[]string
	Filters    map[string]any
	Enabled    *bool
}

func (p Patch) touchesTiming() bool {
	return p.Frequency != nil || p.DayOfWeek != nil || p.DayOfMonth != nil || p.TimeOfDay != nil
}

// Page is one page of a listing.
type Page struct {
	Items []models.ScheduledReport `json:"items"`
	Total int64                    `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

// Manager owns scheduled report definitions. Every mutation is limited to
// administrators and the row's owner.
type Manager struct {
	db       *gorm.DB
	loc      *time.Location
	validate *validator.Validate
	now      func() time.Time
}

func NewManager(db *gorm.DB, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{
		db:       db,
		loc:      loc,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (m *Manager) Create(ctx context.Context, actor *models.User, def Definition) (*models.ScheduledReport, error) {
	if !actor.HasPermission(models.PermReportsSchedule) {
		return nil, &errs.PermissionError{Action: models.PermReportsSchedule}
	}

	sr := &models.ScheduledReport{
		Name:       strings.TrimSpace(def.Name),
		OwnerID:    actor.ID,
		DayOfWeek:  def.DayOfWeek,
		DayOfMonth: def.DayOfMonth,
		TimeOfDay:  strings.TrimSpace(def.TimeOfDay),
		Recipients: def.Recipients,
		Columns:    def.Columns,
		Filters:    datatypes.JSONMap(def.Filters),
		IsEnabled:  true,
	}
	if sr.TimeOfDay == "" {
		sr.TimeOfDay = "09:00"
	}
	if def.Enabled != nil {
		sr.IsEnabled = *def.Enabled
	}

	fields := map[string]string{}
	if sr.Name == "" {
		fields["name"] = "is required"
	}
	var err error
	if sr.DataSource, err = models.ParseDataSource(def.DataSource); err != nil {
		return nil, err
	}
	if sr.Format, err = models.ParseReportFormat(def.Format); err != nil {
		return nil, err
	}
	if sr.Frequency, err = models.ParseFrequency(def.Frequency); err != nil {
		fields["frequency"] = "must be one of daily, weekly, monthly"
	}
	m.checkRecipients(sr.Recipients, fields)
	if len(fields) > 0 {
		return nil, &errs.ValidationError{Message: "validation failed", Fields: fields}
	}

	if err := m.schedule(sr); err != nil {
		return nil, err
	}

	if err := m.db.WithContext(ctx).Create(sr).Error; err != nil {
		return nil, fmt.Errorf("failed to create scheduled report: %w", err)
	}
	return sr, nil
}

// Get returns a definition visible to the actor.
func (m *Manager) Get(ctx context.Context, actor *models.User, id uint) (*models.ScheduledReport, error) {
	var sr models.ScheduledReport
	if err := m.db.WithContext(ctx).First(&sr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Resource: "scheduled report", ID: id}
		}
		return nil, fmt.Errorf("failed to load scheduled report: %w", err)
	}
	if !actor.IsAdmin() && sr.OwnerID != actor.ID {
		return nil, &errs.PermissionError{Action: "scheduled-report:read"}
	}
	return &sr, nil
}

// List pages through all definitions for administrators and through the
// actor's own definitions otherwise.
func (m *Manager) List(ctx context.Context, actor *models.User, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	query := m.db.WithContext(ctx).Model(&models.ScheduledReport{})
	if !actor.IsAdmin() {
		query = query.Where("owner_id = ?", actor.ID)
	}

	result := &Page{Page: page, Limit: limit, Items: []models.ScheduledReport{}}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count scheduled reports: %w", err)
	}
	if err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled reports: %w", err)
	}
	return result, nil
}

// Update applies a patch. The next run is recomputed whenever a timing
// field changes or a disabled definition is enabled again.
func (m *Manager) Update(ctx context.Context, actor *models.User, id uint, p Patch) (*models.ScheduledReport, error) {
	sr, err := m.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if p.Name != nil {
		sr.Name = strings.TrimSpace(*p.Name)
		if sr.Name == "" {
			fields["name"] = "is required"
		}
	}
	if p.DataSource != nil {
		if sr.DataSource, err = models.ParseDataSource(*p.DataSource); err != nil {
			return nil, err
		}
	}
	if p.Format != nil {
		if sr.Format, err = models.ParseReportFormat(*p.Format); err != nil {
			return nil, err
		}
	}
	if p.Frequency != nil {
		if sr.Frequency, err = models.ParseFrequency(*p.Frequency); err != nil {
			fields["frequency"] = "must be one of daily, weekly, monthly"
		}
	}
	if p.DayOfWeek != nil {
		sr.DayOfWeek = p.DayOfWeek
	}
	if p.DayOfMonth != nil {
		sr.DayOfMonth = p.DayOfMonth
	}
	if p.TimeOfDay != nil {
		sr.TimeOfDay = strings.TrimSpace(*p.TimeOfDay)
	}
	if p.Recipients != nil {
		sr.Recipients = *p.Recipients
		m.checkRecipients(sr.Recipients, fields)
	}
	if p.Columns != nil {
		sr.Columns = *p.Columns
	}
	if p.Filters != nil {
		sr.Filters = datatypes.JSONMap(p.Filters)
	}
	if len(fields) > 0 {
		return nil, &errs.ValidationError{Message: "validation failed", Fields: fields}
	}

	reschedule := p.touchesTiming()
	if p.Enabled != nil {
		if *p.Enabled && !sr.IsEnabled {
			reschedule = true
		}
		sr.IsEnabled = *p.Enabled
	}
	if reschedule {
		if err := m.schedule(sr); err != nil {
			return nil, err
		}
	}

	if err := m.db.WithContext(ctx).Save(sr).Error; err != nil {
		return nil, fmt.Errorf("failed to update scheduled report: %w", err)
	}
	return sr, nil
}

// SetEnabled toggles a definition without touching anything else.
func (m *Manager) SetEnabled(ctx context.Context, actor *models.User, id uint, enabled bool) (*models.ScheduledReport, error) {
	return m.Update(ctx, actor, id, Patch{Enabled: &enabled})
}

// Delete removes a definition regardless of its run history.
func (m *Manager) Delete(ctx context.Context, actor *models.User, id uint) error {
	sr, err := m.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := m.db.WithContext(ctx).Delete(&models.ScheduledReport{}, sr.ID).Error; err != nil {
		return fmt.Errorf("failed to delete scheduled report: %w", err)
	}
	return nil
}

func (m *Manager) schedule(sr *models.ScheduledReport) error {
	next, err := NextRunFor(sr, m.now().In(m.loc))
	if err != nil {
		return err
	}
	sr.NextRunAt = next.UTC()
	return nil
}

func (m *Manager) checkRecipients(recipients []string, fields map[string]string) {
	for _, r := range recipients {
		if err := m.validate.Var(strings.TrimSpace(r), "required,email"); err != nil {
			fields["recipients"] = fmt.Sprintf("invalid email address %q", r)
			return
		}
	}
}
