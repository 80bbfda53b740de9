package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjardine/gemsync/internal/catalog"
	"github.com/mjardine/gemsync/internal/media"
	"github.com/mjardine/gemsync/internal/models"
	"github.com/mjardine/gemsync/internal/shopify"
	"github.com/mjardine/gemsync/internal/warranty"
)

// mockSource serves fixed groups by ID.
type mockSource struct {
	groups map[string]*models.Group
	err    error
}

func (m *mockSource) FetchGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	g, ok := m.groups[groupID]
	if !ok {
		return nil, warranty.ErrNotFound
	}
	return g, nil
}

func (m *mockSource) FetchAllGroupIDs(ctx context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.groups))
	for id := range m.groups {
		ids = append(ids, id)
	}
	return ids, nil
}

func ringGroup(groupID string, sizes ...float64) *models.Group {
	g := &models.Group{ID: groupID}
	for i, size := range sizes {
		g.Rows = append(g.Rows, &models.SKURow{
			SKU:          fmt.Sprintf("%s-R%d", groupID, i+1),
			GroupID:      groupID,
			Category:     "RING",
			MetalStamp:   "14K",
			MetalColor:   "WHITE",
			MetalCode:    "14K",
			MaterialCode: "LGD",
			ShapeCode:    "ROUND",
			CaratWeight:  1.5,
			RingSize:     size,
			Price:        "0.00",
		})
	}
	return g
}

func testEngine(source warranty.Source, client shopify.Client, opts Options) *Engine {
	return NewEngine(source, client, media.NopSource{}, nil, opts)
}

func smallOpts() Options {
	opts := DefaultOptions()
	opts.BatchThreshold = 100 // force individual dispatch
	opts.BulkPollInterval = time.Millisecond
	opts.BulkTimeout = time.Second
	return opts
}

func resultFor(t *testing.T, s *models.RunSummary, groupID string) *models.GroupResult {
	t.Helper()
	for _, r := range s.Results {
		if r.GroupID == groupID {
			return r
		}
	}
	t.Fatalf("no result for group %s", groupID)
	return nil
}

func TestRun_CreatesNewGroup(t *testing.T) {
	source := &mockSource{groups: map[string]*models.Group{"WB100": ringGroup("WB100", 5.0, 6.0)}}
	client := shopify.NewMockClient()
	engine := testEngine(source, client, smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	r := resultFor(t, summary, "WB100")
	assert.Equal(t, models.OutcomeCreated, r.Outcome)
	assert.NotEmpty(t, r.PlatformID)
	assert.NotEmpty(t, r.Fingerprint)
	assert.Equal(t, 2, r.Variants)
	require.Len(t, client.Upserts, 1)
}

func TestRun_NoOpWhenFingerprintMatches(t *testing.T) {
	group := ringGroup("WB100", 5.0, 6.0)
	source := &mockSource{groups: map[string]*models.Group{"WB100": group}}

	entity := catalog.Build(group, catalog.Classify(group))
	fingerprint := models.Fingerprint(entity)

	client := shopify.NewMockClient()
	client.SeedProduct(entity.Handle, "gid://mock/Product/7", fingerprint)
	engine := testEngine(source, client, smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NoOp)
	assert.Empty(t, client.Upserts, "matching fingerprint must not dispatch")

	r := resultFor(t, summary, "WB100")
	assert.Equal(t, "gid://mock/Product/7", r.PlatformID)
}

func TestRun_UpdatesWhenFingerprintDiffers(t *testing.T) {
	group := ringGroup("WB100", 5.0, 6.0)
	source := &mockSource{groups: map[string]*models.Group{"WB100": group}}

	entity := catalog.Build(group, catalog.Classify(group))
	client := shopify.NewMockClient()
	client.SeedProduct(entity.Handle, "gid://mock/Product/7", "stale-fingerprint")
	engine := testEngine(source, client, smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	require.Len(t, client.Upserts, 1)
}

func TestRun_RunIsIdempotent(t *testing.T) {
	source := &mockSource{groups: map[string]*models.Group{"WB100": ringGroup("WB100", 5.0, 6.0)}}
	client := shopify.NewMockClient()
	engine := testEngine(source, client, smallOpts())

	first, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.NoOp)
	assert.Len(t, client.Upserts, 1, "second run must not dispatch again")
}

func TestRun_UnknownGroupIsNotFound(t *testing.T) {
	source := &mockSource{groups: map[string]*models.Group{}}
	engine := testEngine(source, shopify.NewMockClient(), smallOpts())

	summary, err := engine.Run(context.Background(), []string{"NOPE"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	r := resultFor(t, summary, "NOPE")
	assert.Equal(t, models.ErrKindNotFound, r.ErrorKind)
}

func TestRun_ValidationFailureIsTerminal(t *testing.T) {
	group := ringGroup("WB100", 5.0, 6.0)
	group.Rows[1].SKU = "" // invalid: variant without SKU
	source := &mockSource{groups: map[string]*models.Group{"WB100": group}}
	client := shopify.NewMockClient()
	engine := testEngine(source, client, smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)

	r := resultFor(t, summary, "WB100")
	assert.Equal(t, models.OutcomeFailed, r.Outcome)
	assert.Equal(t, models.ErrKindValidation, r.ErrorKind)
	assert.Empty(t, client.Upserts)
}

func TestRun_RejectionWithShellIsPartialFailure(t *testing.T) {
	group := ringGroup("WB100", 5.0, 6.0)
	source := &mockSource{groups: map[string]*models.Group{"WB100": group}}

	entity := catalog.Build(group, catalog.Classify(group))
	client := shopify.NewMockClient()
	client.UpsertErrs[entity.Handle] = []error{&shopify.RejectionError{
		Handle:     entity.Handle,
		PlatformID: "gid://mock/Product/13",
		Errors:     []shopify.UserError{{Message: "variant limit exceeded"}},
	}}
	engine := testEngine(source, client, smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PartialFailure)

	r := resultFor(t, summary, "WB100")
	assert.Equal(t, models.ErrKindRemoteRejection, r.ErrorKind)
	assert.Equal(t, "gid://mock/Product/13", r.PlatformID)
}

func TestRun_TransientDispatchFailure(t *testing.T) {
	group := ringGroup("WB100", 5.0)
	source := &mockSource{groups: map[string]*models.Group{"WB100": group}}

	entity := catalog.Build(group, catalog.Classify(group))
	client := shopify.NewMockClient()
	client.UpsertErrs[entity.Handle] = []error{
		&shopify.RemoteError{Status: 503, Code: "unavailable", Message: "down"},
	}
	engine := testEngine(source, client, smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)

	r := resultFor(t, summary, "WB100")
	assert.Equal(t, models.OutcomeFailed, r.Outcome)
	assert.Equal(t, models.ErrKindTransientRemote, r.ErrorKind)
}

func TestRun_PartialRunContinuesPastFailures(t *testing.T) {
	source := &mockSource{groups: map[string]*models.Group{
		"WB100": ringGroup("WB100", 5.0),
		"WB200": ringGroup("WB200", 6.0),
	}}
	client := shopify.NewMockClient()
	engine := testEngine(source, client, smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100", "MISSING", "WB200"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total())
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
}

func TestRun_DryRunDispatchesNothing(t *testing.T) {
	source := &mockSource{groups: map[string]*models.Group{"WB100": ringGroup("WB100", 5.0)}}
	client := shopify.NewMockClient()
	opts := smallOpts()
	opts.DryRun = true
	engine := testEngine(source, client, opts)

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Empty(t, client.Upserts)
	assert.Empty(t, client.Products)
}

func TestRun_BulkPathAboveThreshold(t *testing.T) {
	groups := make(map[string]*models.Group)
	var ids []string
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("WB%03d", i)
		groups[id] = ringGroup(id, 5.0, 6.0)
		ids = append(ids, id)
	}
	source := &mockSource{groups: groups}
	client := shopify.NewMockClient()

	opts := smallOpts()
	opts.BatchThreshold = 10
	engine := testEngine(source, client, opts)

	summary, err := engine.Run(context.Background(), ids, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Created)
	assert.Empty(t, client.Upserts, "batch must go through the bulk path")
	assert.Len(t, client.BulkEntities, 12)
}

func TestRun_BulkMissingResultIsTransient(t *testing.T) {
	groups := make(map[string]*models.Group)
	var ids []string
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("WB%03d", i)
		groups[id] = ringGroup(id, 5.0)
		ids = append(ids, id)
	}
	source := &mockSource{groups: groups}

	client := shopify.NewMockClient()
	client.BulkOp = &shopify.BulkOperation{ID: "op-1", Status: shopify.BulkStatusCompleted}
	client.BulkResults = map[string]*shopify.UpsertResult{} // platform reported nothing

	opts := smallOpts()
	opts.BatchThreshold = 2
	engine := testEngine(source, client, opts)

	summary, err := engine.Run(context.Background(), ids, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Failed)
	for _, r := range summary.Results {
		assert.Equal(t, models.ErrKindTransientRemote, r.ErrorKind)
	}
}

func TestRun_BulkOperationFailure(t *testing.T) {
	groups := map[string]*models.Group{
		"WB001": ringGroup("WB001", 5.0),
		"WB002": ringGroup("WB002", 6.0),
	}
	source := &mockSource{groups: groups}

	client := shopify.NewMockClient()
	client.BulkOp = &shopify.BulkOperation{ID: "op-1", Status: shopify.BulkStatusFailed, ErrorCode: "INTERNAL_SERVER_ERROR"}
	client.BulkResults = map[string]*shopify.UpsertResult{}

	opts := smallOpts()
	opts.BatchThreshold = 2
	engine := testEngine(source, client, opts)

	summary, err := engine.Run(context.Background(), []string{"WB001", "WB002"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
}

func TestRun_SourceErrorIsDataError(t *testing.T) {
	source := &mockSource{err: errors.New("connection refused")}
	engine := testEngine(source, shopify.NewMockClient(), smallOpts())

	summary, err := engine.Run(context.Background(), []string{"WB100"}, nil)
	require.NoError(t, err)

	r := resultFor(t, summary, "WB100")
	assert.Equal(t, models.ErrKindData, r.ErrorKind)
}

func TestRun_ProgressReportsEveryGroup(t *testing.T) {
	source := &mockSource{groups: map[string]*models.Group{
		"WB100": ringGroup("WB100", 5.0),
		"WB200": ringGroup("WB200", 6.0),
	}}
	engine := testEngine(source, shopify.NewMockClient(), smallOpts())

	var seen int
	_, err := engine.Run(context.Background(), []string{"WB100", "WB200"}, func(r *models.GroupResult, done, total int) {
		seen++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestSyncAll_UsesAllGroupIDs(t *testing.T) {
	source := &mockSource{groups: map[string]*models.Group{
		"WB100": ringGroup("WB100", 5.0),
		"WB200": ringGroup("WB200", 6.0),
	}}
	engine := testEngine(source, shopify.NewMockClient(), smallOpts())

	summary, err := engine.SyncAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total())
	assert.Equal(t, 2, summary.Created)
}
