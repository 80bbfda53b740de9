// Package shopify implements the remote catalog platform client: an
// atomic product upsert keyed by handle, bulk operations for large
// runs, retries with backoff, and a shared token-bucket rate limiter.
package shopify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mjardine/gemsync/internal/models"
)

// FingerprintNamespace and FingerprintKey locate the sync fingerprint
// metafield on a remote product. The platform itself is the store of
// last-known state; nothing is cached locally between passes.
const (
	FingerprintNamespace = "gemsync"
	FingerprintKey       = "fingerprint"
)

// Client is the contract for communicating with the catalog platform.
type Client interface {
	// GetProductByHandle reads the remote state for a handle. Returns
	// (nil, nil) when no product exists.
	GetProductByHandle(ctx context.Context, handle string) (*models.RemoteState, error)

	// UpsertProduct creates or updates the product, its options,
	// variants, metafields, and media in one atomic mutation keyed by
	// handle. Field-level platform errors surface as *RejectionError.
	UpsertProduct(ctx context.Context, entity *models.CatalogEntity, fingerprint string) (*UpsertResult, error)

	// StartBulkUpsert serializes the entities into one asynchronous
	// bulk operation and returns its operation ID.
	StartBulkUpsert(ctx context.Context, entities []*models.CatalogEntity, fingerprints map[string]string) (string, error)

	// GetBulkOperation reads the current status of a bulk operation.
	GetBulkOperation(ctx context.Context, opID string) (*BulkOperation, error)

	// FetchBulkResults downloads and parses the per-entity results of a
	// completed bulk operation, keyed by handle.
	FetchBulkResults(ctx context.Context, op *BulkOperation) (map[string]*UpsertResult, error)
}

// UserError is a structured field-level error from the platform.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

func (u UserError) String() string {
	if len(u.Field) == 0 {
		return u.Message
	}
	return fmt.Sprintf("%s: %s", strings.Join(u.Field, "."), u.Message)
}

// UpsertResult is the outcome of one product upsert.
type UpsertResult struct {
	ProductID  string
	UserErrors []UserError
}

// Bulk operation states reported by the platform.
const (
	BulkStatusCreated   = "CREATED"
	BulkStatusRunning   = "RUNNING"
	BulkStatusCompleted = "COMPLETED"
	BulkStatusFailed    = "FAILED"
	BulkStatusCanceled  = "CANCELED"
)

// BulkOperation is the platform-side state of an asynchronous bulk
// upsert.
type BulkOperation struct {
	ID          string
	Status      string
	ErrorCode   string
	ObjectCount int
	ResultURL   string
}

// Done reports whether the operation has reached a terminal state.
func (op *BulkOperation) Done() bool {
	switch op.Status {
	case BulkStatusCompleted, BulkStatusFailed, BulkStatusCanceled:
		return true
	}
	return false
}
