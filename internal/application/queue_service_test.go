package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	apperrors "github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/events"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
)

type mockBatchRepo struct {
	byID         map[string]*domain.Batch
	deleteCounts domain.DeleteCounts
	resetCounts  domain.ResetCounts
	resetCalls   int
	updated      []*domain.Batch
}

func newMockBatchRepo(batches ...*domain.Batch) *mockBatchRepo {
	repo := &mockBatchRepo{byID: make(map[string]*domain.Batch)}
	for _, b := range batches {
		repo.byID[b.BatchID] = b
	}
	return repo
}

func (m *mockBatchRepo) Save(_ context.Context, batch *domain.Batch) error {
	m.byID[batch.BatchID] = batch
	return nil
}

func (m *mockBatchRepo) FindByBatchID(_ context.Context, batchID string) (*domain.Batch, error) {
	return m.byID[batchID], nil
}

func (m *mockBatchRepo) FindByCell(_ context.Context, cellID string, includeCompleted bool) ([]*domain.Batch, error) {
	var result []*domain.Batch
	for _, b := range m.byID {
		if !includeCompleted && b.Status == domain.BatchStatusCompleted {
			continue
		}
		if _, assigned := b.PriorityForCell(cellID); assigned {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBatchRepo) FindPersonalizedPool(_ context.Context, includeCompleted bool) ([]*domain.Batch, error) {
	var result []*domain.Batch
	for _, b := range m.byID {
		if !includeCompleted && b.Status == domain.BatchStatusCompleted {
			continue
		}
		if b.InPersonalizedPool() {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBatchRepo) FindAll(_ context.Context) ([]*domain.Batch, error) {
	var result []*domain.Batch
	for _, b := range m.byID {
		result = append(result, b)
	}
	return result, nil
}

func (m *mockBatchRepo) Update(_ context.Context, batch *domain.Batch) error {
	m.byID[batch.BatchID] = batch
	m.updated = append(m.updated, batch)
	return nil
}

func (m *mockBatchRepo) DeleteCascade(_ context.Context, batchID string) (domain.DeleteCounts, error) {
	delete(m.byID, batchID)
	return m.deleteCounts, nil
}

func (m *mockBatchRepo) ResetAll(_ context.Context) (domain.ResetCounts, error) {
	m.resetCalls++
	counts := m.resetCounts
	m.resetCounts = domain.ResetCounts{} // second call finds nothing
	m.byID = make(map[string]*domain.Batch)
	return counts, nil
}

type mockCellRepo struct {
	cells map[string]*domain.PickCell
}

func newMockCellRepo(cellIDs ...string) *mockCellRepo {
	repo := &mockCellRepo{cells: make(map[string]*domain.PickCell)}
	for _, id := range cellIDs {
		repo.cells[id] = &domain.PickCell{CellID: id, Name: id, Active: true}
	}
	return repo
}

func (m *mockCellRepo) FindByCellID(_ context.Context, cellID string) (*domain.PickCell, error) {
	return m.cells[cellID], nil
}

func (m *mockCellRepo) FindAll(_ context.Context, activeOnly bool) ([]*domain.PickCell, error) {
	var result []*domain.PickCell
	for _, c := range m.cells {
		if activeOnly && !c.Active {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

type mockPublisher struct {
	published []*events.CloudEvent
}

func (m *mockPublisher) Publish(_ context.Context, event *events.CloudEvent) error {
	m.published = append(m.published, event)
	return nil
}

func newQueueService(batches *mockBatchRepo, cells *mockCellRepo) (*BatchQueueService, *mockPublisher) {
	publisher := &mockPublisher{}
	service := NewBatchQueueService(
		batches,
		cells,
		publisher,
		events.NewFactory(events.Source),
		logging.New(&logging.Config{ServiceName: "test", Level: logging.LevelError}),
	)
	return service, publisher
}

func mustBatch(t *testing.T, name string, cellIDs ...string) *domain.Batch {
	t.Helper()
	batch, err := domain.NewBatch(name, domain.BatchTypeOrderBySize, false, 10, cellIDs)
	require.NoError(t, err)
	batch.ClearDomainEvents()
	return batch
}

func TestReorderIDs(t *testing.T) {
	tests := []struct {
		name        string
		ids         []string
		movedID     string
		targetIndex int
		want        []string
		expectError bool
	}{
		{"move to front", []string{"a", "b", "c"}, "c", 0, []string{"c", "a", "b"}, false},
		{"move to back", []string{"a", "b", "c"}, "a", 2, []string{"b", "c", "a"}, false},
		{"move to middle", []string{"a", "b", "c", "d"}, "d", 1, []string{"a", "d", "b", "c"}, false},
		{"no-op position", []string{"a", "b", "c"}, "b", 1, []string{"a", "b", "c"}, false},
		{"unknown id", []string{"a", "b"}, "z", 0, nil, true},
		{"target out of range", []string{"a", "b"}, "a", 2, nil, true},
		{"negative target", []string{"a", "b"}, "a", -1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]string(nil), tt.ids...)
			got, err := ReorderIDs(tt.ids, tt.movedID, tt.targetIndex)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, original, tt.ids) // input not mutated
		})
	}
}

func TestReorder_RewritesOnlyTargetCellPriorities(t *testing.T) {
	// three batches queued on CELL-1; b3 is also queued on CELL-2
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	b2 := mustBatch(t, "Batch 2", "CELL-1")
	b3 := mustBatch(t, "Batch 3", "CELL-1", "CELL-2")
	b1.CellAssignments[0].Priority = 1
	b2.CellAssignments[0].Priority = 2
	b3.CellAssignments[0].Priority = 3
	b3.CellAssignments[1].Priority = 7

	service, _ := newQueueService(newMockBatchRepo(b1, b2, b3), newMockCellRepo("CELL-1", "CELL-2"))

	queue, err := service.Reorder(context.Background(), ReorderBatchCommand{
		BatchID:     b3.BatchID,
		CellID:      "CELL-1",
		TargetIndex: 0,
	})
	require.NoError(t, err)

	require.Len(t, queue.Batches, 3)
	assert.Equal(t, b3.BatchID, queue.Batches[0].BatchID)
	assert.Equal(t, b1.BatchID, queue.Batches[1].BatchID)
	assert.Equal(t, b2.BatchID, queue.Batches[2].BatchID)

	// CELL-1 priorities rewritten 1..3, CELL-2 pair untouched
	p, _ := b3.PriorityForCell("CELL-1")
	assert.Equal(t, 1, p)
	p, _ = b3.PriorityForCell("CELL-2")
	assert.Equal(t, 7, p)
}

func TestReorder_InvalidTargetRejected(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	service, _ := newQueueService(newMockBatchRepo(b1), newMockCellRepo("CELL-1"))

	_, err := service.Reorder(context.Background(), ReorderBatchCommand{
		BatchID:     b1.BatchID,
		CellID:      "CELL-1",
		TargetIndex: 5,
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}

func TestReorder_DeletedBatchConflict(t *testing.T) {
	service, _ := newQueueService(newMockBatchRepo(), newMockCellRepo("CELL-1"))

	_, err := service.Reorder(context.Background(), ReorderBatchCommand{
		BatchID:     "BATCH-gone",
		CellID:      "CELL-1",
		TargetIndex: 0,
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestReorder_PersonalizedPoolBatchRejected(t *testing.T) {
	pool, err := domain.NewBatch("Rings", domain.BatchTypeOrderBySize, true, 5, nil)
	require.NoError(t, err)
	pool.ClearDomainEvents()
	service, _ := newQueueService(newMockBatchRepo(pool), newMockCellRepo("CELL-1"))

	_, err = service.Reorder(context.Background(), ReorderBatchCommand{
		BatchID:     pool.BatchID,
		CellID:      "CELL-1",
		TargetIndex: 0,
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Contains(t, appErr.Message, "personalized pool")
}

func TestEditCellAssignments_EmptySetRejected(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	repo := newMockBatchRepo(b1)
	service, _ := newQueueService(repo, newMockCellRepo("CELL-1"))

	_, err := service.EditCellAssignments(context.Background(), EditCellAssignmentsCommand{
		BatchID: b1.BatchID,
		CellIDs: []string{},
	})
	require.Error(t, err)

	// no state mutated
	assert.Len(t, b1.CellAssignments, 1)
	assert.Empty(t, repo.updated)
}

func TestEditCellAssignments_AddedCellJoinsBehindCellQueue(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	waiting := mustBatch(t, "Batch 2", "CELL-2")
	waiting.CellAssignments[0].Priority = 4
	service, _ := newQueueService(newMockBatchRepo(b1, waiting), newMockCellRepo("CELL-1", "CELL-2"))

	dto, err := service.EditCellAssignments(context.Background(), EditCellAssignmentsCommand{
		BatchID: b1.BatchID,
		CellIDs: []string{"CELL-1", "CELL-2"},
	})
	require.NoError(t, err)
	require.Len(t, dto.CellAssignments, 2)

	// joins behind the batch already waiting in CELL-2, not at this
	// batch's own max+1
	p2, ok := b1.PriorityForCell("CELL-2")
	require.True(t, ok)
	assert.Equal(t, 5, p2)

	// the surviving assignment is untouched
	p1, ok := b1.PriorityForCell("CELL-1")
	require.True(t, ok)
	assert.Equal(t, 1, p1)
}

func TestEditCellAssignments_UnknownCellRejected(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	service, _ := newQueueService(newMockBatchRepo(b1), newMockCellRepo("CELL-1"))

	_, err := service.EditCellAssignments(context.Background(), EditCellAssignmentsCommand{
		BatchID: b1.BatchID,
		CellIDs: []string{"CELL-404"},
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestGetCellQueue_OrderedByPairPriority(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	b2 := mustBatch(t, "Batch 2", "CELL-1")
	b1.CellAssignments[0].Priority = 5
	b2.CellAssignments[0].Priority = 2

	service, _ := newQueueService(newMockBatchRepo(b1, b2), newMockCellRepo("CELL-1"))

	queue, err := service.GetCellQueue(context.Background(), GetCellQueueQuery{CellID: "CELL-1"})
	require.NoError(t, err)
	require.Len(t, queue.Batches, 2)
	assert.Equal(t, b2.BatchID, queue.Batches[0].BatchID)
	assert.Equal(t, b1.BatchID, queue.Batches[1].BatchID)
}

func TestGetCellQueue_ExcludesCompleted(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	b2 := mustBatch(t, "Batch 2", "CELL-1")
	require.NoError(t, b2.StartPicking())
	require.NoError(t, b2.RecordPicked(10))
	require.NoError(t, b2.RecordShipped(10))
	require.NoError(t, b2.Complete())
	b2.ClearDomainEvents()

	service, _ := newQueueService(newMockBatchRepo(b1, b2), newMockCellRepo("CELL-1"))

	queue, err := service.GetCellQueue(context.Background(), GetCellQueueQuery{CellID: "CELL-1"})
	require.NoError(t, err)
	require.Len(t, queue.Batches, 1)
	assert.Equal(t, b1.BatchID, queue.Batches[0].BatchID)

	queue, err = service.GetCellQueue(context.Background(), GetCellQueueQuery{CellID: "CELL-1", IncludeCompleted: true})
	require.NoError(t, err)
	assert.Len(t, queue.Batches, 2)
}

func TestCreateBatch_PublishesCreatedEvent(t *testing.T) {
	service, publisher := newQueueService(newMockBatchRepo(), newMockCellRepo("CELL-1"))

	dto, err := service.CreateBatch(context.Background(), CreateBatchCommand{
		Name:        "Morning Singles",
		Type:        string(domain.BatchTypeSingles),
		TotalOrders: 40,
		CellIDs:     []string{"CELL-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", dto.Status)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "wms.fulfillment.batch.created", publisher.published[0].Type)
}

func TestCreateBatch_RejectsInvalidType(t *testing.T) {
	service, _ := newQueueService(newMockBatchRepo(), newMockCellRepo("CELL-1"))

	_, err := service.CreateBatch(context.Background(), CreateBatchCommand{
		Name:        "Bad",
		Type:        "MYSTERY",
		TotalOrders: 5,
		CellIDs:     []string{"CELL-1"},
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}

func TestDelete_ReportsCounts(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	repo := newMockBatchRepo(b1)
	repo.deleteCounts = domain.DeleteCounts{Batches: 1, Chunks: 3, OrdersUnlinked: 28}

	service, publisher := newQueueService(repo, newMockCellRepo("CELL-1"))

	result, err := service.Delete(context.Background(), DeleteBatchCommand{BatchID: b1.BatchID})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 28, result.OrdersUnlinked)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "wms.fulfillment.batch.deleted", publisher.published[0].Type)
}

func TestResetAll_IdempotentCounts(t *testing.T) {
	b1 := mustBatch(t, "Batch 1", "CELL-1")
	repo := newMockBatchRepo(b1)
	repo.resetCounts = domain.ResetCounts{Batches: 2, Chunks: 5, OrdersUnlinked: 90, CartsReset: 4}

	service, _ := newQueueService(repo, newMockCellRepo("CELL-1"))

	first, err := service.ResetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Batches)
	assert.Equal(t, 4, first.CartsReset)

	second, err := service.ResetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ResetResultDTO{}, second)
	assert.Equal(t, 2, repo.resetCalls)
}
