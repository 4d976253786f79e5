package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/posko-pajak/api-go/metrics"
	"github.com/posko-pajak/api-go/models"
	"golang.org/x/sync/errgroup"
)

// ItemResult is the outcome of one bulk item. A nil Err means success.
type ItemResult struct {
	ID  string
	Err error
}

type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BulkResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// BulkRunner applies one function to many ids. Items are isolated: a failing
// item is recorded and never stops the rest of the batch.
type BulkRunner struct {
	concurrency int
}

func NewBulkRunner(concurrency int) *BulkRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BulkRunner{concurrency: concurrency}
}

// Run processes ids (deduplicated, in order) and returns the tally. Failures
// keep the order of the input ids.
func (b *BulkRunner) Run(ctx context.Context, operation string, ids []string, fn func(ctx context.Context, id string) error) BulkResult {
	ids = dedupe(ids)
	results := make([]ItemResult, len(ids))
	var succeeded atomic.Int64

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			err := runItem(ctx, id, fn)
			results[i] = ItemResult{ID: id, Err: err}
			if err == nil {
				succeeded.Add(1)
				metrics.BulkItemsTotal.WithLabelValues(operation, "success").Inc()
			} else {
				metrics.BulkItemsTotal.WithLabelValues(operation, "failure").Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	result := BulkResult{Succeeded: int(succeeded.Load()), Failed: []BulkFailure{}}
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		log.WithError(r.Err).WithFields(log.Fields{"operation": operation, "report_id": r.ID}).Warn("bulk item failed")
		result.Failed = append(result.Failed, BulkFailure{ID: r.ID, Reason: r.Err.Error()})
	}
	return result
}

func runItem(ctx context.Context, id string, fn func(ctx context.Context, id string) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrStorage, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrNotFound
	}
	return fn(ctx, id)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// BulkUpdateStatus sets status (and admin notes when non-nil) on every id.
func (s *ReportService) BulkUpdateStatus(ctx context.Context, actor Actor, ids []string, status string, adminNotes *string) (BulkResult, error) {
	if !CanRunBulk(actor) {
		return BulkResult{}, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	if len(ids) == 0 {
		return BulkResult{}, validationError("report_ids is required")
	}
	if !models.IsValidStatus(status) {
		return BulkResult{}, validationError("invalid status %q", status)
	}

	result := s.bulk.Run(ctx, "update_status", ids, func(ctx context.Context, id string) error {
		return s.applyStatus(ctx, actor, id, status, adminNotes)
	})
	log.WithFields(log.Fields{
		"actor":     actor.ID,
		"status":    status,
		"succeeded": result.Succeeded,
		"failed":    len(result.Failed),
	}).Info("bulk status update finished")
	return result, nil
}

// BulkDelete removes each report's attachments (blobs and rows), soft-deletes
// the report, then removes its primary image.
func (s *ReportService) BulkDelete(ctx context.Context, actor Actor, ids []string) (BulkResult, error) {
	if !CanRunBulk(actor) {
		return BulkResult{}, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	if len(ids) == 0 {
		return BulkResult{}, validationError("report_ids is required")
	}

	result := s.bulk.Run(ctx, "delete", ids, func(ctx context.Context, id string) error {
		report, err := s.reports.Get(ctx, id)
		if err != nil {
			return storageError("get report", err)
		}
		if err := s.purgeAttachments(ctx, id); err != nil {
			return err
		}
		if err := s.reports.SoftDelete(ctx, id); err != nil {
			return storageError("delete report", err)
		}
		if report.ImagePath != nil {
			s.deleteBlob(ctx, *report.ImagePath)
		}
		metrics.ReportsDeletedTotal.Inc()
		return nil
	})
	log.WithFields(log.Fields{
		"actor":     actor.ID,
		"succeeded": result.Succeeded,
		"failed":    len(result.Failed),
	}).Info("bulk delete finished")
	return result, nil
}
