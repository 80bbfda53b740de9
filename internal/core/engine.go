// Package core implements the sync orchestrator: it drives each SKU
// group through fetch, classification, entity building, validation,
// fingerprint comparison, and remote dispatch, and aggregates the
// per-group results into a run summary.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mjardine/gemsync/internal/catalog"
	"github.com/mjardine/gemsync/internal/media"
	"github.com/mjardine/gemsync/internal/models"
	"github.com/mjardine/gemsync/internal/shopify"
	"github.com/mjardine/gemsync/internal/warranty"
)

// Options configures a sync run.
type Options struct {
	// Workers bounds concurrent group processing.
	Workers int
	// BatchThreshold is the group count at which the run switches from
	// individual dispatch to one bulk operation.
	BatchThreshold int
	// DryRun reports what would change without dispatching mutations.
	DryRun bool
	// BulkPollInterval is how often a pending bulk operation is polled.
	BulkPollInterval time.Duration
	// BulkTimeout bounds the wait for a bulk operation to finish.
	BulkTimeout time.Duration
}

// DefaultOptions returns the orchestrator defaults.
func DefaultOptions() Options {
	return Options{
		Workers:          4,
		BatchThreshold:   10,
		BulkPollInterval: 2 * time.Second,
		BulkTimeout:      30 * time.Minute,
	}
}

// Progress is called once per finished group.
type Progress func(result *models.GroupResult, done, total int)

// Engine coordinates a sync run end to end.
type Engine struct {
	source warranty.Source
	client shopify.Client
	media  media.Source
	logger *slog.Logger
	opts   Options
}

// NewEngine assembles an engine from its collaborators.
func NewEngine(source warranty.Source, client shopify.Client, mediaSource media.Source, logger *slog.Logger, opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchThreshold < 1 {
		opts.BatchThreshold = 1
	}
	if mediaSource == nil {
		mediaSource = media.NopSource{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source: source,
		client: client,
		media:  mediaSource,
		logger: logger,
		opts:   opts,
	}
}

// plan is one group prepared for dispatch: the built entity, its
// fingerprint, and the create/update decision taken against the
// remote state read at the start of the pass.
type plan struct {
	groupID     string
	entity      *models.CatalogEntity
	fingerprint string
	outcome     models.Outcome // OutcomeCreated or OutcomeUpdated
	platformID  string         // non-empty for updates
}

// Run synchronizes the given groups and returns the run summary. Group
// failures are recorded in the summary, not returned as an error; only
// run-level problems (context cancellation, bulk machinery failure)
// abort the run.
func (e *Engine) Run(ctx context.Context, groupIDs []string, progress Progress) (*models.RunSummary, error) {
	if progress == nil {
		progress = func(*models.GroupResult, int, int) {}
	}

	summary := &models.RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	e.logger.Info("sync run started",
		"run_id", summary.RunID,
		"groups", len(groupIDs),
		"dry_run", e.opts.DryRun,
	)

	var mu sync.Mutex
	done := 0
	record := func(r *models.GroupResult) {
		mu.Lock()
		summary.Add(r)
		done++
		progress(r, done, len(groupIDs))
		mu.Unlock()
	}

	// Preparation is identical on both paths: every group is fetched,
	// classified, built, validated, and compared against remote state.
	plans := e.prepare(ctx, groupIDs, record)

	if len(plans) > 0 {
		var err error
		if len(groupIDs) >= e.opts.BatchThreshold {
			err = e.dispatchBulk(ctx, plans, record)
		} else {
			err = e.dispatchIndividual(ctx, plans, record)
		}
		if err != nil {
			return summary, err
		}
	}

	summary.FinishedAt = time.Now().UTC()
	e.logger.Info("sync run finished",
		"run_id", summary.RunID,
		"created", summary.Created,
		"updated", summary.Updated,
		"noop", summary.NoOp,
		"partial_failure", summary.PartialFailure,
		"failed", summary.Failed,
	)
	return summary, nil
}

// prepare runs the local pipeline plus the remote state read for every
// group, records terminal results (failures and no-ops) immediately,
// and returns the plans that still need a mutation.
func (e *Engine) prepare(ctx context.Context, groupIDs []string, record func(*models.GroupResult)) []*plan {
	var mu sync.Mutex
	var plans []*plan

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, id := range groupIDs {
		groupID := id
		g.Go(func() error {
			p, result := e.prepareGroup(gctx, groupID)
			if result != nil {
				record(result)
				return nil
			}
			mu.Lock()
			plans = append(plans, p)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures become group results.
	_ = g.Wait()
	return plans
}

// prepareGroup takes one group from raw rows to a dispatch decision.
// Exactly one of the return values is non-nil: a plan when a mutation
// is still required, or a terminal result otherwise.
func (e *Engine) prepareGroup(ctx context.Context, groupID string) (*plan, *models.GroupResult) {
	group, err := e.source.FetchGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, warranty.ErrNotFound) {
			return nil, &models.GroupResult{
				GroupID:   groupID,
				Outcome:   models.OutcomeFailed,
				ErrorKind: models.ErrKindNotFound,
				Message:   "group has no SKU rows",
			}
		}
		return nil, &models.GroupResult{
			GroupID:   groupID,
			Outcome:   models.OutcomeFailed,
			ErrorKind: models.ErrKindData,
			Message:   err.Error(),
		}
	}

	classified := catalog.Classify(group)
	entity := catalog.Build(group, classified)
	if err := catalog.Validate(entity); err != nil {
		e.logger.Warn("group failed validation", "group_id", groupID, "error", err)
		return nil, &models.GroupResult{
			GroupID:   groupID,
			Outcome:   models.OutcomeFailed,
			ErrorKind: models.ErrKindValidation,
			Message:   err.Error(),
		}
	}

	refs, err := e.media.ValidatedMedia(ctx, group)
	if err != nil {
		// Media is additive; a failed lookup degrades to a bare entity
		// rather than failing the group.
		e.logger.Warn("media lookup failed", "group_id", groupID, "error", err)
	} else {
		entity.Media = refs
	}

	fingerprint := models.Fingerprint(entity)

	state, err := e.client.GetProductByHandle(ctx, entity.Handle)
	if err != nil {
		return nil, &models.GroupResult{
			GroupID:     groupID,
			Outcome:     models.OutcomeFailed,
			Fingerprint: fingerprint,
			ErrorKind:   models.ErrKindTransientRemote,
			Message:     err.Error(),
			Variants:    len(entity.Variants),
			Metafields:  len(entity.Metafields),
		}
	}

	p := &plan{
		groupID:     groupID,
		entity:      entity,
		fingerprint: fingerprint,
		outcome:     models.OutcomeCreated,
	}
	if state != nil {
		p.outcome = models.OutcomeUpdated
		p.platformID = state.PlatformID
		if state.LastFingerprint == fingerprint {
			return nil, &models.GroupResult{
				GroupID:     groupID,
				Outcome:     models.OutcomeNoOp,
				PlatformID:  state.PlatformID,
				Fingerprint: fingerprint,
				Variants:    len(entity.Variants),
				Metafields:  len(entity.Metafields),
			}
		}
	}

	if e.opts.DryRun {
		return nil, &models.GroupResult{
			GroupID:     groupID,
			Outcome:     p.outcome,
			PlatformID:  p.platformID,
			Fingerprint: fingerprint,
			Message:     "dry run",
			Variants:    len(entity.Variants),
			Metafields:  len(entity.Metafields),
		}
	}
	return p, nil
}

// dispatchIndividual sends one productSet mutation per plan, bounded
// by the worker limit.
func (e *Engine) dispatchIndividual(ctx context.Context, plans []*plan, record func(*models.GroupResult)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, p := range plans {
		p := p
		g.Go(func() error {
			result, err := e.client.UpsertProduct(gctx, p.entity, p.fingerprint)
			record(e.resolveDispatch(p, result, err))
			return nil
		})
	}
	return g.Wait()
}

// resolveDispatch maps an upsert outcome onto the group result.
func (e *Engine) resolveDispatch(p *plan, result *shopify.UpsertResult, err error) *models.GroupResult {
	r := &models.GroupResult{
		GroupID:     p.groupID,
		Fingerprint: p.fingerprint,
		Variants:    len(p.entity.Variants),
		Metafields:  len(p.entity.Metafields),
	}

	if err == nil {
		r.Outcome = p.outcome
		if result != nil {
			r.PlatformID = result.ProductID
		}
		return r
	}

	var rej *shopify.RejectionError
	if errors.As(err, &rej) {
		r.ErrorKind = models.ErrKindRemoteRejection
		r.Message = rej.Error()
		r.PlatformID = rej.PlatformID
		if rej.PartialCreate() {
			r.Outcome = models.OutcomePartialFailure
		} else {
			r.Outcome = models.OutcomeFailed
		}
		e.logger.Warn("platform rejected group", "group_id", p.groupID, "error", rej)
		return r
	}

	r.Outcome = models.OutcomeFailed
	r.ErrorKind = models.ErrKindTransientRemote
	r.Message = err.Error()
	e.logger.Warn("dispatch failed", "group_id", p.groupID, "error", err)
	return r
}

// SyncAll fetches every known group ID and runs a full sync.
func (e *Engine) SyncAll(ctx context.Context, progress Progress) (*models.RunSummary, error) {
	ids, err := e.source.FetchAllGroupIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return e.Run(ctx, ids, progress)
}
