package shopify

import (
	"context"
	"fmt"
	"sync"

	"github.com/mjardine/gemsync/internal/models"
)

// mockProduct is the remote-side state the mock tracks per handle.
type mockProduct struct {
	ID          string
	Fingerprint string
}

// MockClient is a mock implementation of Client for testing.
type MockClient struct {
	mu sync.Mutex

	// Products stores remote products by handle.
	Products map[string]*mockProduct
	// Err can be set to make methods return an error.
	Err error
	// UpsertErrs injects a per-handle error queue: each upsert of that
	// handle pops one error until the queue is empty.
	UpsertErrs map[string][]error
	// Upserts records every entity dispatched, in order.
	Upserts []*models.CatalogEntity
	// BulkOp is returned by GetBulkOperation when set.
	BulkOp *BulkOperation
	// BulkResults is returned by FetchBulkResults.
	BulkResults map[string]*UpsertResult
	// BulkEntities records the entities passed to StartBulkUpsert.
	BulkEntities []*models.CatalogEntity

	nextID int
}

// NewMockClient creates a new MockClient for testing.
func NewMockClient() *MockClient {
	return &MockClient{
		Products:   make(map[string]*mockProduct),
		UpsertErrs: make(map[string][]error),
	}
}

// SeedProduct places an existing remote product in the mock store.
func (m *MockClient) SeedProduct(handle, id, fingerprint string) {
	m.Products[handle] = &mockProduct{ID: id, Fingerprint: fingerprint}
}

// GetProductByHandle returns the mock remote state for a handle, or
// (nil, nil) when absent.
func (m *MockClient) GetProductByHandle(ctx context.Context, handle string) (*models.RemoteState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[handle]
	if !ok {
		return nil, nil
	}
	return &models.RemoteState{PlatformID: p.ID, LastFingerprint: p.Fingerprint}, nil
}

// UpsertProduct records the entity and applies it to the mock store.
func (m *MockClient) UpsertProduct(ctx context.Context, entity *models.CatalogEntity, fingerprint string) (*UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if queue := m.UpsertErrs[entity.Handle]; len(queue) > 0 {
		err := queue[0]
		m.UpsertErrs[entity.Handle] = queue[1:]
		if err != nil {
			return nil, err
		}
	}

	m.Upserts = append(m.Upserts, entity)

	p, ok := m.Products[entity.Handle]
	if !ok {
		m.nextID++
		p = &mockProduct{ID: fmt.Sprintf("gid://mock/Product/%d", m.nextID)}
		m.Products[entity.Handle] = p
	}
	p.Fingerprint = fingerprint
	return &UpsertResult{ProductID: p.ID}, nil
}

// StartBulkUpsert records the batch and returns a fixed operation ID.
func (m *MockClient) StartBulkUpsert(ctx context.Context, entities []*models.CatalogEntity, fingerprints map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.BulkEntities = append(m.BulkEntities, entities...)
	if m.BulkOp == nil {
		m.BulkOp = &BulkOperation{ID: "gid://mock/BulkOperation/1", Status: BulkStatusCompleted}
	}
	if m.BulkResults == nil {
		// Default: every entity succeeds and lands in the store.
		m.BulkResults = make(map[string]*UpsertResult)
		for _, e := range entities {
			p, ok := m.Products[e.Handle]
			if !ok {
				m.nextID++
				p = &mockProduct{ID: fmt.Sprintf("gid://mock/Product/%d", m.nextID)}
				m.Products[e.Handle] = p
			}
			p.Fingerprint = fingerprints[e.GroupID]
			m.BulkResults[e.Handle] = &UpsertResult{ProductID: p.ID}
		}
	}
	return m.BulkOp.ID, nil
}

// GetBulkOperation returns the configured operation state.
func (m *MockClient) GetBulkOperation(ctx context.Context, opID string) (*BulkOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.BulkOp == nil {
		return nil, fmt.Errorf("bulk operation %s not found", opID)
	}
	return m.BulkOp, nil
}

// FetchBulkResults returns the configured per-handle results.
func (m *MockClient) FetchBulkResults(ctx context.Context, op *BulkOperation) (map[string]*UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.BulkResults == nil {
		return map[string]*UpsertResult{}, nil
	}
	return m.BulkResults, nil
}

// Verify MockClient implements Client
var _ Client = (*MockClient)(nil)
