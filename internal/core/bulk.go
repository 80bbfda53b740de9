package core

import (
	"context"
	"fmt"
	"time"

	"github.com/mjardine/gemsync/internal/models"
	"github.com/mjardine/gemsync/internal/shopify"
)

// dispatchBulk sends all plans as one asynchronous bulk operation,
// polls it to completion, and maps the per-entity results back to
// group results. A bulk-level failure marks every pending group as
// transiently failed rather than aborting the run.
func (e *Engine) dispatchBulk(ctx context.Context, plans []*plan, record func(*models.GroupResult)) error {
	entities := make([]*models.CatalogEntity, len(plans))
	fingerprints := make(map[string]string, len(plans))
	byHandle := make(map[string]*plan, len(plans))
	for i, p := range plans {
		entities[i] = p.entity
		fingerprints[p.groupID] = p.fingerprint
		byHandle[p.entity.Handle] = p
	}

	failAll := func(kind models.ErrorKind, msg string) {
		for _, p := range plans {
			record(&models.GroupResult{
				GroupID:     p.groupID,
				Outcome:     models.OutcomeFailed,
				Fingerprint: p.fingerprint,
				ErrorKind:   kind,
				Message:     msg,
				Variants:    len(p.entity.Variants),
				Metafields:  len(p.entity.Metafields),
			})
		}
	}

	opID, err := e.client.StartBulkUpsert(ctx, entities, fingerprints)
	if err != nil {
		e.logger.Error("bulk operation launch failed", "error", err)
		failAll(models.ErrKindTransientRemote, fmt.Sprintf("bulk launch: %v", err))
		return nil
	}
	e.logger.Info("bulk operation started", "operation_id", opID, "groups", len(plans))

	op, err := e.waitForBulk(ctx, opID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		failAll(models.ErrKindTransientRemote, err.Error())
		return nil
	}
	if op.Status != shopify.BulkStatusCompleted {
		e.logger.Error("bulk operation did not complete",
			"operation_id", opID, "status", op.Status, "error_code", op.ErrorCode)
		failAll(models.ErrKindTransientRemote,
			fmt.Sprintf("bulk operation %s: %s", op.Status, op.ErrorCode))
		return nil
	}

	results, err := e.client.FetchBulkResults(ctx, op)
	if err != nil {
		failAll(models.ErrKindTransientRemote, fmt.Sprintf("fetch bulk results: %v", err))
		return nil
	}

	for handle, p := range byHandle {
		res, ok := results[handle]
		if !ok {
			// The platform never reported on this entity; treat it as
			// retryable on the next run.
			record(&models.GroupResult{
				GroupID:     p.groupID,
				Outcome:     models.OutcomeFailed,
				Fingerprint: p.fingerprint,
				ErrorKind:   models.ErrKindTransientRemote,
				Message:     "missing from bulk operation results",
				Variants:    len(p.entity.Variants),
				Metafields:  len(p.entity.Metafields),
			})
			continue
		}

		var err error
		if len(res.UserErrors) > 0 {
			err = &shopify.RejectionError{
				Handle:     handle,
				PlatformID: res.ProductID,
				Errors:     res.UserErrors,
			}
		}
		record(e.resolveDispatch(p, res, err))
	}
	return nil
}

// waitForBulk polls the operation until it reaches a terminal state or
// the bulk timeout elapses.
func (e *Engine) waitForBulk(ctx context.Context, opID string) (*shopify.BulkOperation, error) {
	interval := e.opts.BulkPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	deadline := time.Now().Add(e.opts.BulkTimeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		op, err := e.client.GetBulkOperation(ctx, opID)
		if err != nil {
			return nil, fmt.Errorf("poll bulk operation: %w", err)
		}
		if op.Done() {
			return op, nil
		}
		if e.opts.BulkTimeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("bulk operation %s timed out in status %s", opID, op.Status)
		}

		e.logger.Debug("bulk operation pending",
			"operation_id", opID, "status", op.Status, "objects", op.ObjectCount)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
