package models

import (
	"time"

	"github.com/deliverydesk/internal/errs"
	"gorm.io/datatypes"
)

type DataSource string

const (
	SourceOrders     DataSource = "orders"
	SourceCouriers   DataSource = "couriers"
	SourceBusinesses DataSource = "businesses"
	SourceCustomers  DataSource = "customers"
	SourceDeliveries DataSource = "deliveries"
)

type ReportFormat string

const (
	FormatPDF   ReportFormat = "pdf"
	FormatExcel ReportFormat = "excel"
	FormatCSV   ReportFormat = "csv"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ScheduledReport is a recurring report definition. NextRunAt is advanced by
// the run orchestrator after every successful execution.
type ScheduledReport struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Name       string            `gorm:"not null" json:"name"`
	OwnerID    uint              `gorm:"index;not null" json:"ownerId"`
	Owner      *User             `gorm:"foreignKey:OwnerID" json:"-"`
	DataSource DataSource        `gorm:"not null" json:"dataSource"`
	Format     ReportFormat      `gorm:"not null" json:"format"`
	Frequency  Frequency         `gorm:"not null" json:"frequency"`
	DayOfWeek  *int              `json:"dayOfWeek,omitempty"`
	DayOfMonth *int              `json:"dayOfMonth,omitempty"`
	TimeOfDay  string            `gorm:"not null;default:'09:00'" json:"timeOfDay"`
	Recipients []string          `gorm:"serializer:json" json:"recipients"`
	Columns    []string          `gorm:"serializer:json" json:"columns"`
	Filters    datatypes.JSONMap `json:"filters"`
	IsEnabled  bool              `gorm:"index" json:"enabled"`
	LastRunAt  *time.Time        `json:"lastRunAt"`
	NextRunAt  time.Time         `gorm:"index" json:"nextRunAt"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Report is a one-off export. FilePath is filled in once rendering
// completes; nothing else changes after creation.
type Report struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Title      string            `gorm:"not null" json:"title"`
	DataSource DataSource        `gorm:"not null" json:"dataSource"`
	Format     ReportFormat      `gorm:"not null" json:"format"`
	StartDate  time.Time         `json:"startDate"`
	EndDate    time.Time         `json:"endDate"`
	Columns    []string          `gorm:"serializer:json" json:"columns"`
	Filters    datatypes.JSONMap `json:"filters"`
	OwnerID    uint              `gorm:"index;not null" json:"ownerId"`
	FilePath   string            `json:"filePath,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// RenderedArtifact is the stored output of one rendering.
type RenderedArtifact struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	ReportID          *uint        `gorm:"index" json:"reportId,omitempty"`
	ScheduledReportID *uint        `gorm:"index" json:"scheduledReportId,omitempty"`
	Format            ReportFormat `json:"format"`
	FileName          string       `json:"fileName"`
	Path              string       `json:"path"`
	Size              int64        `json:"size"`
	CreatedAt         time.Time    `json:"createdAt"`
}

type DispatchStatus string

const (
	DispatchStatusSent   DispatchStatus = "sent"
	DispatchStatusFailed DispatchStatus = "failed"
)

// ReportDeliveryLog records the outcome of one dispatch.
type ReportDeliveryLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ArtifactID   uint           `gorm:"index" json:"artifactId"`
	Recipients   []string       `gorm:"serializer:json" json:"recipients"`
	Status       DispatchStatus `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// ParseDataSource resolves the closed set of report sources.
func ParseDataSource(s string) (DataSource, error) {
	switch ds := DataSource(s); ds {
	case SourceOrders, SourceCouriers, SourceBusinesses, SourceCustomers, SourceDeliveries:
		return ds, nil
	}
	return "", &errs.UnsupportedSourceError{Source: s}
}

func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(s); f {
	case FormatPDF, FormatExcel, FormatCSV:
		return f, nil
	}
	return "", &errs.UnsupportedFormatError{Format: s}
}

// Extension is the file extension used for stored artifacts.
func (f ReportFormat) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	default:
		return "csv"
	}
}

func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	}
	return "", errs.Invalid("frequency", "must be one of daily, weekly, monthly")
}
