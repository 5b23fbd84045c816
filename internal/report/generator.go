package report

import (
	"context"
	"fmt"
	"time"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"gorm.io/gorm"
)

// Request describes one rendering. Exactly one of ReportID and
// ScheduledReportID is usually set so the artifact can be traced back.
type Request struct {
	Title             string
	Source            models.DataSource
	Format            models.ReportFormat
	Range             DateRange
	Columns           []string
	Filters           Filters
	ReportID          *uint
	ScheduledReportID *uint
}

// ReportGenerator runs fetch, project, render and store for one request.
type ReportGenerator struct {
	db        *gorm.DB
	adapter   *Adapter
	projector *Projector
	store     *Store
	now       func() time.Time
}

func NewReportGenerator(db *gorm.DB, store *Store, loc *time.Location) *ReportGenerator {
	return &ReportGenerator{
		db:        db,
		adapter:   NewAdapter(db),
		projector: NewProjector(loc),
		store:     store,
		now:       time.Now,
	}
}

// Generate produces and records a RenderedArtifact. Source and format are
// resolved before any query runs.
func (g *ReportGenerator) Generate(ctx context.Context, req Request) (*models.RenderedArtifact, error) {
	src, err := Lookup(req.Source)
	if err != nil {
		return nil, err
	}
	renderer, err := RendererFor(req.Format)
	if err != nil {
		return nil, err
	}

	// Collect report data
	records, err := g.adapter.fetch(ctx, src, req.Range, req.Filters)
	if err != nil {
		return nil, err
	}

	columns := ColumnsFor(src, req.Columns)
	table := Table{
		Title:       req.Title,
		GeneratedAt: g.now().In(g.projector.loc),
		Headers:     Labels(src, columns),
		Rows:        g.projector.Project(records, src, columns),
	}

	data, err := renderer.Render(table)
	if err != nil {
		return nil, &errs.RenderError{Format: string(req.Format), Err: err}
	}

	path, name, err := g.store.Save(req.Title, req.Format, data)
	if err != nil {
		return nil, err
	}

	artifact := &models.RenderedArtifact{
		ReportID:          req.ReportID,
		ScheduledReportID: req.ScheduledReportID,
		Format:            req.Format,
		FileName:          name,
		Path:              path,
		Size:              int64(len(data)),
	}
	if err := g.db.WithContext(ctx).Create(artifact).Error; err != nil {
		return nil, fmt.Errorf("failed to save artifact record: %w", err)
	}

	return artifact, nil
}
