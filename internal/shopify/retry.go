package shopify

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mjardine/gemsync/internal/models"
)

// RetryConfig configures retry behavior for transient errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.25,
	}
}

// RetryClient wraps a Client with automatic retry on transient errors
// and an optional shared rate limiter acquired before every attempt.
// When the platform names an explicit wait via Retry-After, that wait
// replaces the computed backoff for the next attempt.
type RetryClient struct {
	inner   Client
	config  *RetryConfig
	limiter *Limiter
}

// NewRetryClient creates a RetryClient that wraps the given Client.
// limiter may be nil to dispatch unthrottled.
func NewRetryClient(inner Client, cfg *RetryConfig, limiter *Limiter) *RetryClient {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	return &RetryClient{inner: inner, config: cfg, limiter: limiter}
}

// backoff computes the delay for the given attempt with jitter.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	base := float64(rc.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(rc.config.MaxBackoff) {
		base = float64(rc.config.MaxBackoff)
	}
	jitter := base * rc.config.JitterFraction * (rand.Float64()*2 - 1) // +/- jitter
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// retry executes fn with retry logic. Only retryable outcomes are
// retried; an explicit wait hint from the platform overrides backoff.
func (rc *RetryClient) retry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= rc.config.MaxRetries; attempt++ {
		if err := rc.limiter.Acquire(ctx); err != nil {
			return fmt.Errorf("%s: %w", operation, err)
		}
		lastErr = fn()
		outcome, waitHint := Classify(lastErr)
		if outcome == OutcomeSuccess {
			return nil
		}
		if outcome == OutcomeFatal {
			return lastErr
		}
		if attempt < rc.config.MaxRetries {
			d := rc.backoff(attempt)
			if waitHint > 0 {
				d = waitHint
			}
			if err := sleep(ctx, d); err != nil {
				return fmt.Errorf("%s: %w (retry cancelled)", operation, lastErr)
			}
		}
	}
	return fmt.Errorf("%s: %w (after %d retries)", operation, lastErr, rc.config.MaxRetries)
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Delegate all Client methods through retry logic ---

func (rc *RetryClient) GetProductByHandle(ctx context.Context, handle string) (state *models.RemoteState, err error) {
	err = rc.retry(ctx, "get product", func() error {
		state, err = rc.inner.GetProductByHandle(ctx, handle)
		return err
	})
	return
}

func (rc *RetryClient) UpsertProduct(ctx context.Context, entity *models.CatalogEntity, fingerprint string) (result *UpsertResult, err error) {
	// Safe to retry: the upsert is keyed by handle, so a repeat of a
	// half-applied attempt converges on the same remote product.
	err = rc.retry(ctx, "upsert product", func() error {
		result, err = rc.inner.UpsertProduct(ctx, entity, fingerprint)
		return err
	})
	return
}

func (rc *RetryClient) StartBulkUpsert(ctx context.Context, entities []*models.CatalogEntity, fingerprints map[string]string) (opID string, err error) {
	// Bulk launch is NOT retried wholesale: a transient failure after
	// the operation started would fork a second bulk run. Callers fall
	// back to individual dispatch instead.
	if lerr := rc.limiter.Acquire(ctx); lerr != nil {
		return "", lerr
	}
	return rc.inner.StartBulkUpsert(ctx, entities, fingerprints)
}

func (rc *RetryClient) GetBulkOperation(ctx context.Context, opID string) (op *BulkOperation, err error) {
	err = rc.retry(ctx, "get bulk operation", func() error {
		op, err = rc.inner.GetBulkOperation(ctx, opID)
		return err
	})
	return
}

func (rc *RetryClient) FetchBulkResults(ctx context.Context, bulkOp *BulkOperation) (results map[string]*UpsertResult, err error) {
	err = rc.retry(ctx, "fetch bulk results", func() error {
		results, err = rc.inner.FetchBulkResults(ctx, bulkOp)
		return err
	})
	return
}
