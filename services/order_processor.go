package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/order-analytics-api/models"
	"github.com/kendall-kelly/order-analytics-api/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxReportedFailures caps the per-row detail in an outcome
const maxReportedFailures = 5

// requiredValueColumns must be non-blank for a row to be considered at all
var requiredValueColumns = []string{"order_id", "order_date", "customer_name", "address_line"}

// Upload is one file submitted for ingestion
type Upload struct {
	FileName   string
	Data       []byte
	UploadedBy string
}

// IngestionOutcome is the result of one upload
type IngestionOutcome struct {
	Success       bool         `json:"success"`
	RowsProcessed int          `json:"rows_processed"`
	Errors        []string     `json:"errors"`
	UploadID      string       `json:"upload_id,omitempty"`
	Failures      []RowFailure `json:"-"`
}

func failedOutcome(uploadID string, errs ...string) IngestionOutcome {
	return IngestionOutcome{Success: false, RowsProcessed: 0, Errors: errs, UploadID: uploadID}
}

// numberedRow keeps the original file line of a row through filtering
type numberedRow struct {
	number int
	row    RawRow
}

// OrderProcessor drives an upload from raw bytes to a replaced dataset.
// Uploads are processed one at a time.
type OrderProcessor struct {
	store       *OrderStore
	transformer *RowTransformer
	validator   SchemaValidator
	archive     UploadArchive
	metrics     *Metrics
	logger      *zap.Logger
	workers     int

	mu    sync.Mutex
	newID func() string
	now   func() time.Time
}

// ProcessorOption configures an OrderProcessor
type ProcessorOption func(*OrderProcessor)

// WithWorkers transforms rows across n goroutines
func WithWorkers(n int) ProcessorOption {
	return func(p *OrderProcessor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithArchive copies every raw upload to archive before processing
func WithArchive(archive UploadArchive) ProcessorOption {
	return func(p *OrderProcessor) { p.archive = archive }
}

// WithMetrics records upload metrics
func WithMetrics(metrics *Metrics) ProcessorOption {
	return func(p *OrderProcessor) { p.metrics = metrics }
}

// NewOrderProcessor creates a processor writing to store
func NewOrderProcessor(store *OrderStore, transformer *RowTransformer, logger *zap.Logger, opts ...ProcessorOption) *OrderProcessor {
	p := &OrderProcessor{
		store:       store,
		transformer: transformer,
		logger:      logger.Named("ingestion"),
		workers:     1,
		newID:       func() string { return uuid.New().String() },
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process ingests upload. It never panics and never returns an error: every
// problem is reported through the outcome.
func (p *OrderProcessor) Process(ctx context.Context, upload Upload) (outcome IngestionOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := p.now()
	record := &models.UploadRecord{
		ID:         p.newID(),
		FileName:   upload.FileName,
		FileSize:   int64(len(upload.Data)),
		UploadedBy: upload.UploadedBy,
		StartedAt:  started,
	}
	logger := p.logger.With(zap.String("upload_id", record.ID), zap.String("file", upload.FileName))

	var skipped int
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("upload processing panicked", zap.Any("panic", rec), zap.Stack("stack"))
			outcome = failedOutcome(record.ID, fmt.Sprintf("Processing failed: %v", rec))
			p.recordFailure(ctx, record, outcome.Errors, 0, logger)
		}
		p.metrics.ObserveUpload(outcome.Success, outcome.RowsProcessed, len(outcome.Failures), skipped, p.now().Sub(started))
	}()

	p.archiveRaw(ctx, upload, record, logger)

	table, err := utils.ParseTable(upload.FileName, upload.Data)
	if err != nil {
		logger.Warn("upload could not be decoded", zap.Error(err))
		outcome = failedOutcome(record.ID, fmt.Sprintf("Failed to read file: %v", err))
		p.recordFailure(ctx, record, outcome.Errors, 0, logger)
		return outcome
	}

	NormalizeHeaders(&table)
	if errs := p.validator.Validate(table); len(errs) > 0 {
		logger.Info("upload rejected by schema validation", zap.Strings("errors", errs))
		outcome = failedOutcome(record.ID, errs...)
		p.recordFailure(ctx, record, outcome.Errors, 0, logger)
		return outcome
	}

	rows := prefilter(table)
	skipped = len(table.Rows) - len(rows)

	orders, failures := p.transformAll(rows)
	for i := range orders {
		orders[i].UploadID = record.ID
	}

	if len(orders) == 0 {
		errs := summarizeFailures(failures)
		if len(errs) == 0 {
			errs = []string{"No valid rows found in file"}
		}
		outcome = IngestionOutcome{Success: false, Errors: errs, UploadID: record.ID, Failures: failures}
		p.recordFailure(ctx, record, errs, len(failures), logger)
		logger.Info("upload produced no orders", zap.Int("failed", len(failures)), zap.Int("skipped", skipped))
		return outcome
	}

	record.Status = models.UploadSucceeded
	record.RowsProcessed = len(orders)
	record.RowsFailed = len(failures)
	record.ErrorSummary = strings.Join(summarizeFailures(failures), "; ")
	record.FinishedAt = p.now()

	if err := p.store.ReplaceAll(ctx, orders, record); err != nil {
		logger.Error("failed to store orders", zap.Error(err))
		outcome = failedOutcome(record.ID, fmt.Sprintf("Failed to store orders: %v", err))
		outcome.Failures = failures
		p.recordFailure(ctx, record, outcome.Errors, len(failures), logger)
		return outcome
	}

	logger.Info("upload ingested",
		zap.Int("ingested", len(orders)),
		zap.Int("failed", len(failures)),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", p.now().Sub(started)),
	)

	return IngestionOutcome{
		Success:       true,
		RowsProcessed: len(orders),
		Errors:        summarizeFailures(failures),
		UploadID:      record.ID,
		Failures:      failures,
	}
}

func (p *OrderProcessor) archiveRaw(ctx context.Context, upload Upload, record *models.UploadRecord, logger *zap.Logger) {
	if p.archive == nil {
		return
	}
	key, err := p.archive.Archive(ctx, record.ID, upload.FileName, upload.Data)
	if err != nil {
		logger.Warn("failed to archive raw upload", zap.Error(err))
		return
	}
	record.ArchiveKey = &key
}

func (p *OrderProcessor) recordFailure(ctx context.Context, record *models.UploadRecord, errs []string, failed int, logger *zap.Logger) {
	record.Status = models.UploadFailed
	record.RowsProcessed = 0
	record.RowsFailed = failed
	record.ErrorSummary = strings.Join(errs, "; ")
	record.FinishedAt = p.now()

	if err := p.store.RecordUpload(ctx, record); err != nil {
		logger.Error("failed to record upload", zap.Error(err))
	}
}

// transformAll folds rows into orders and failures, both in file order
func (p *OrderProcessor) transformAll(rows []numberedRow) ([]models.Order, []RowFailure) {
	type result struct {
		order   models.Order
		failure *RowFailure
	}
	results := make([]result, len(rows))

	if p.workers <= 1 || len(rows) < 2 {
		for i, r := range rows {
			results[i].order, results[i].failure = p.transformer.Transform(r.row, r.number)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(p.workers)
		for i, r := range rows {
			g.Go(func() error {
				results[i].order, results[i].failure = p.transformer.Transform(r.row, r.number)
				return nil
			})
		}
		_ = g.Wait()
	}

	orders := make([]models.Order, 0, len(rows))
	var failures []RowFailure
	for _, res := range results {
		if res.failure != nil {
			failures = append(failures, *res.failure)
			continue
		}
		orders = append(orders, res.order)
	}
	return orders, failures
}

// prefilter drops rows missing a required value, then keeps the first row
// of every order_id. Row numbers are the file lines the rows start on.
func prefilter(table utils.Table) []numberedRow {
	rows := make([]numberedRow, 0, len(table.Rows))
	seen := make(map[string]bool, len(table.Rows))

	for i := range table.Rows {
		row := RawRow(table.Record(i))
		if !hasRequiredValues(row) {
			continue
		}
		id := strings.TrimSpace(row["order_id"])
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, numberedRow{number: table.Line(i), row: row})
	}
	return rows
}

func hasRequiredValues(row RawRow) bool {
	for _, column := range requiredValueColumns {
		if strings.TrimSpace(row[column]) == "" {
			return false
		}
	}
	return true
}

func summarizeFailures(failures []RowFailure) []string {
	if len(failures) == 0 {
		return []string{}
	}
	errs := []string{fmt.Sprintf("%d rows failed to process", len(failures))}
	for i, f := range failures {
		if i == maxReportedFailures {
			break
		}
		errs = append(errs, f.String())
	}
	return errs
}
