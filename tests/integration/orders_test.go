package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taxgeo/backend/internal/application/orders"
	"github.com/taxgeo/backend/internal/domain/shared"
	"github.com/taxgeo/backend/internal/infrastructure/persistence"
	"github.com/taxgeo/backend/internal/infrastructure/storage"
)

func newOrdersService(tdb *TestDB) (*orders.Service, *storage.StubObjectStorage) {
	store := storage.NewStubObjectStorage()
	svc := orders.NewService(&persistence.Database{DB: tdb.DB}, store, zap.NewNop())
	return svc, store
}

// seedRisks creates an organization with n unassigned risks and returns
// the risk ids.
func seedRisks(t *testing.T, tdb *TestDB, n int) []int {
	t.Helper()

	require.NoError(t, tdb.DB.Exec(
		`INSERT INTO organizations (iin_bin, name_ru) VALUES ('900000000001', 'Risky Org')`).Error)
	var orgID int
	require.NoError(t, tdb.DB.Raw(
		`SELECT id FROM organizations WHERE iin_bin = '900000000001'`).Scan(&orgID).Error)

	for i := 0; i < n; i++ {
		require.NoError(t, tdb.DB.Exec(
			`INSERT INTO risks (organization_id) VALUES (?)`, orgID).Error)
	}
	var ids []int
	require.NoError(t, tdb.DB.Raw(
		`SELECT id FROM risks WHERE organization_id = ? ORDER BY id`, orgID).Scan(&ids).Error)
	require.Len(t, ids, n)
	return ids
}

func TestOrderLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	svc, store := newOrdersService(tdb)
	ctx := context.Background()

	riskIDs := seedRisks(t, tdb, 3)

	desc := "field inspection"
	order, err := svc.CreateOrder(ctx, orders.CreateOrderInput{
		Description: &desc,
		RiskIDs:     riskIDs[:2],
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	// The two assigned risks carry the order linkage, the third does not.
	var orderedCount int64
	require.NoError(t, tdb.DB.Raw(
		`SELECT count(*) FROM risks WHERE order_id = ? AND is_ordered`, order.ID).Scan(&orderedCount).Error)
	assert.Equal(t, int64(2), orderedCount)

	// Execution step plus an evidence file through the storage layer.
	comment := "visited the site"
	execution, err := svc.CreateExecution(ctx, order.ID, orders.CreateExecutionInput{Comment: &comment})
	require.NoError(t, err)

	file, err := svc.AttachFile(ctx, order.ID, execution.ID, "report.pdf", "application/pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	stored, ok := store.Get(file.StorageKey)
	require.True(t, ok, "object must exist in storage")
	assert.Equal(t, []byte("pdf-bytes"), stored)

	url, expiresAt, err := svc.FileDownloadURL(ctx, file.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.False(t, expiresAt.IsZero())

	loaded, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Executions, 1)

	// Deleting the order releases its risks; the file rows cascade.
	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	require.NoError(t, tdb.DB.Raw(
		`SELECT count(*) FROM risks WHERE is_ordered`).Scan(&orderedCount).Error)
	assert.Zero(t, orderedCount, "risks must be released on order deletion")

	var fileCount int64
	require.NoError(t, tdb.DB.Raw(
		`SELECT count(*) FROM order_files`).Scan(&fileCount).Error)
	assert.Zero(t, fileCount)

	_, err = svc.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPatchOrder_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	svc, _ := newOrdersService(tdb)
	ctx := context.Background()

	require.NoError(t, tdb.DB.Exec(
		`INSERT INTO dic_order_status (code, name_ru) VALUES ('NEW', 'New'), ('DONE', 'Done')`).Error)
	var statusIDs []int
	require.NoError(t, tdb.DB.Raw(
		`SELECT id FROM dic_order_status ORDER BY id`).Scan(&statusIDs).Error)

	order, err := svc.CreateOrder(ctx, orders.CreateOrderInput{StatusID: &statusIDs[0]})
	require.NoError(t, err)

	updated, err := svc.PatchOrder(ctx, order.ID, map[string]any{"status_id": statusIDs[1]})
	require.NoError(t, err)
	require.NotNil(t, updated.StatusID)
	assert.Equal(t, statusIDs[1], *updated.StatusID)

	_, err = svc.PatchOrder(ctx, order.ID, map[string]any{})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMPTY_PATCH", domainErr.Code)

	_, err = svc.PatchOrder(ctx, order.ID, map[string]any{"created_at": "2020-01-01"})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNKNOWN_FIELD", domainErr.Code)
}

func TestAssignRisks_EmptySetRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	svc, _ := newOrdersService(tdb)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, orders.CreateOrderInput{})
	require.NoError(t, err)

	_, err = svc.AssignRisks(ctx, order.ID, nil)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMPTY_FILTER", domainErr.Code)
}
