package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/deliverydesk/internal/models"
	"github.com/deliverydesk/internal/notify"
	"github.com/deliverydesk/internal/report"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

type Generator interface {
	Generate(ctx context.Context, req report.Request) (*models.RenderedArtifact, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, a notify.Attachment, recipients []string) error
}

type RunNotifier interface {
	NotifyRun(ctx context.Context, d notify.RunDigest) error
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one scheduled report within a batch.
type Result struct {
	ReportID uint   `json:"reportId"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// Summary is returned by RunDue.
type Summary struct {
	ReportsRun   int      `json:"reportsRun"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Results      []Result `json:"results"`
}

type RunnerConfig struct {
	// Location the schedule anchors are evaluated in.
	Location *time.Location
	// Concurrency above 1 processes due reports in parallel.
	Concurrency int64
	Notifier    RunNotifier
	Logger      *slog.Logger
}

// Runner executes every due scheduled report once per invocation.
//
// Concurrent RunDue calls are not coordinated; a single trigger at a time is
// assumed.
type Runner struct {
	db          *gorm.DB
	generator   Generator
	dispatcher  Dispatcher
	notifier    RunNotifier
	logger      *slog.Logger
	loc         *time.Location
	concurrency int64
	now         func() time.Time
}

func NewRunner(db *gorm.DB, generator Generator, dispatcher Dispatcher, cfg RunnerConfig) *Runner {
	r := &Runner{
		db:          db,
		generator:   generator,
		dispatcher:  dispatcher,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		loc:         cfg.Location,
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "runner")
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// RunDue selects enabled reports whose next run has elapsed and executes
// each one. A failing report is reported in the summary, keeps its next run
// unchanged and does not stop the batch.
func (r *Runner) RunDue(ctx context.Context) (*Summary, error) {
	now := r.now().In(r.loc)

	var due []models.ScheduledReport
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("is_enabled = ? AND next_run_at <= ?", true, now.UTC()).
		Order("next_run_at ASC, id ASC").
		Find(&due).Error; err != nil {
		return nil, fmt.Errorf("failed to load due scheduled reports: %w", err)
	}

	results := make([]Result, len(due))
	if r.concurrency == 1 {
		for i := range due {
			results[i] = r.runOne(ctx, &due[i], now)
		}
	} else {
		sem := semaphore.NewWeighted(r.concurrency)
		var wg sync.WaitGroup
		for i := range due {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{ReportID: due[i].ID, Status: StatusError, Message: err.Error()}
				continue
			}
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer sem.Release(1)
				results[i] = r.runOne(ctx, &due[i], now)
			}(i)
		}
		wg.Wait()
	}

	summary := &Summary{ReportsRun: len(due), Results: results}
	var failures []string
	for _, res := range results {
		if res.Status == StatusSuccess {
			summary.SuccessCount++
			continue
		}
		summary.ErrorCount++
		failures = append(failures, fmt.Sprintf("#%d: %s", res.ReportID, res.Message))
	}

	r.logger.Info("scheduled run finished",
		"reports_run", summary.ReportsRun,
		"success", summary.SuccessCount,
		"errors", summary.ErrorCount)

	if summary.ErrorCount > 0 && r.notifier != nil {
		digest := notify.RunDigest{
			ReportsRun:   summary.ReportsRun,
			SuccessCount: summary.SuccessCount,
			ErrorCount:   summary.ErrorCount,
			Failures:     failures,
			FinishedAt:   r.now(),
		}
		if err := r.notifier.NotifyRun(ctx, digest); err != nil {
			r.logger.Warn("failed to send run notification", "error", err)
		}
	}

	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, sr *models.ScheduledReport, now time.Time) Result {
	log := r.logger.With("report_id", sr.ID)
	fail := func(stage string, err error) Result {
		log.Error("scheduled report failed", "stage", stage, "error", err)
		return Result{ReportID: sr.ID, Status: StatusError, Message: err.Error()}
	}

	log.Debug("rendering scheduled report", "source", sr.DataSource, "format", sr.Format)
	start, end := RunWindow(sr, now)
	id := sr.ID
	artifact, err := r.generator.Generate(ctx, report.Request{
		Title:             sr.Name,
		Source:            sr.DataSource,
		Format:            sr.Format,
		Range:             report.DateRange{Start: start, End: end},
		Columns:           sr.Columns,
		Filters:           report.Filters(sr.Filters),
		ScheduledReportID: &id,
	})
	if err != nil {
		return fail("rendering", err)
	}

	log.Debug("dispatching scheduled report", "file", artifact.FileName)
	var owner []string
	if sr.Owner != nil {
		owner = []string{sr.Owner.Email}
	}
	attachment := notify.Attachment{
		ArtifactID: artifact.ID,
		Title:      sr.Name,
		Path:       artifact.Path,
		FileName:   artifact.FileName,
	}
	if err := r.dispatcher.Dispatch(ctx, attachment, notify.MergeRecipients(sr.Recipients, owner)); err != nil {
		return fail("dispatching", err)
	}

	next, err := NextRunFor(sr, now)
	if err != nil {
		return fail("scheduling", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.ScheduledReport{}).
		Where("id = ?", sr.ID).
		Updates(map[string]interface{}{
			"last_run_at": now.UTC(),
			"next_run_at": next.UTC(),
		}).Error; err != nil {
		return fail("scheduling", fmt.Errorf("failed to advance schedule: %w", err))
	}

	log.Info("scheduled report completed", "next_run_at", next.UTC())
	return Result{ReportID: sr.ID, Status: StatusSuccess}
}
