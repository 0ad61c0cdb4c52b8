package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	tests := []struct {
		name           string
		batchName      string
		batchType      BatchType
		isPersonalized bool
		totalOrders    int
		cellIDs        []string
		wantErr        error
	}{
		{
			name:        "valid singles batch",
			batchName:   "Batch 42",
			batchType:   BatchTypeSingles,
			totalOrders: 10,
			cellIDs:     []string{"CELL-1"},
		},
		{
			name:        "valid shared batch keeps cell order",
			batchName:   "Batch 43",
			batchType:   BatchTypeOrderBySize,
			totalOrders: 24,
			cellIDs:     []string{"CELL-1", "CELL-2"},
		},
		{
			name:           "personalized batch without cells lands in the pool",
			batchName:      "Rings",
			batchType:      BatchTypeOrderBySize,
			isPersonalized: true,
			totalOrders:    5,
		},
		{
			name:        "invalid type rejected",
			batchName:   "Batch 44",
			batchType:   BatchType("WAVE"),
			totalOrders: 10,
			cellIDs:     []string{"CELL-1"},
			wantErr:     ErrInvalidBatchType,
		},
		{
			name:        "zero orders rejected",
			batchName:   "Batch 45",
			batchType:   BatchTypeSingles,
			totalOrders: 0,
			cellIDs:     []string{"CELL-1"},
			wantErr:     ErrNoOrders,
		},
		{
			name:        "non-personalized batch requires a cell",
			batchName:   "Batch 46",
			batchType:   BatchTypeSingles,
			totalOrders: 10,
			wantErr:     ErrNoCellAssignments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := NewBatch(tt.batchName, tt.batchType, tt.isPersonalized, tt.totalOrders, tt.cellIDs)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, batch)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, batch)
			assert.Equal(t, BatchStatusActive, batch.Status)
			assert.Len(t, batch.CellAssignments, len(tt.cellIDs))
			for i, a := range batch.CellAssignments {
				assert.Equal(t, tt.cellIDs[i], a.CellID)
				assert.Equal(t, i+1, a.Priority)
			}
			assert.Len(t, batch.GetDomainEvents(), 1)
		})
	}
}

func TestParseBatchStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    BatchStatus
		wantErr bool
	}{
		{in: "ACTIVE", want: BatchStatusActive},
		{in: "draft", want: BatchStatusActive},
		{in: " Released ", want: BatchStatusActive},
		{in: "IN_PROGRESS", want: BatchStatusInProgress},
		{in: "completed", want: BatchStatusCompleted},
		{in: "WAVING", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBatchStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBatchStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatch_IsOversized(t *testing.T) {
	oversized, err := NewBatch("O-Batch 1", BatchTypeBulk, false, 6, []string{"CELL-1"})
	require.NoError(t, err)
	assert.True(t, oversized.IsOversized())

	regular, err := NewBatch("Batch 1", BatchTypeBulk, false, 6, []string{"CELL-1"})
	require.NoError(t, err)
	assert.False(t, regular.IsOversized())
}

func TestBatch_Counters(t *testing.T) {
	batch, err := NewBatch("Batch 1", BatchTypeSingles, false, 10, []string{"CELL-1"})
	require.NoError(t, err)

	require.NoError(t, batch.StartPicking())
	assert.Equal(t, BatchStatusInProgress, batch.Status)

	// shipped may never exceed picked
	assert.ErrorIs(t, batch.RecordShipped(1), ErrCounterInvariant)

	require.NoError(t, batch.RecordPicked(10))
	assert.ErrorIs(t, batch.RecordPicked(1), ErrCounterInvariant)

	require.NoError(t, batch.RecordShipped(10))
	assert.ErrorIs(t, batch.RecordShipped(1), ErrCounterInvariant)

	require.NoError(t, batch.Complete())
	assert.Equal(t, BatchStatusCompleted, batch.Status)
	require.NotNil(t, batch.CompletedAt)

	assert.ErrorIs(t, batch.Complete(), ErrBatchCompleted)
	assert.ErrorIs(t, batch.RecordPicked(1), ErrBatchCompleted)
}

func TestBatch_RecordEngraved(t *testing.T) {
	plain, err := NewBatch("Batch 1", BatchTypeSingles, false, 5, []string{"CELL-1"})
	require.NoError(t, err)
	assert.ErrorIs(t, plain.RecordEngraved(1), ErrNotPersonalized)

	personalized, err := NewBatch("Rings", BatchTypeOrderBySize, true, 5, nil)
	require.NoError(t, err)
	require.NoError(t, personalized.RecordEngraved(5))
	assert.ErrorIs(t, personalized.RecordEngraved(1), ErrCounterInvariant)
}

func TestBatch_SetCellAssignments(t *testing.T) {
	batch, err := NewBatch("Batch 1", BatchTypeSingles, false, 10, []string{"CELL-1", "CELL-2"})
	require.NoError(t, err)

	// empty set keeps prior assignments
	assert.ErrorIs(t, batch.SetCellAssignments(nil, nil), ErrNoCellAssignments)
	assert.Len(t, batch.CellAssignments, 2)

	// survivors keep their priority; the added cell joins behind the
	// batches already waiting in its queue
	require.NoError(t, batch.SetCellAssignments([]string{"CELL-2", "CELL-3"}, map[string]int{"CELL-3": 6}))
	require.Len(t, batch.CellAssignments, 2)
	assert.Equal(t, "CELL-2", batch.CellAssignments[0].CellID)
	assert.Equal(t, 2, batch.CellAssignments[0].Priority)
	assert.Equal(t, "CELL-3", batch.CellAssignments[1].CellID)
	assert.Equal(t, 7, batch.CellAssignments[1].Priority)

	// an empty queue starts the cell at priority 1
	require.NoError(t, batch.SetCellAssignments([]string{"CELL-2", "CELL-4"}, nil))
	assert.Equal(t, 1, batch.CellAssignments[1].Priority)
}

func TestBatch_ReorderCell(t *testing.T) {
	batch, err := NewBatch("Batch 1", BatchTypeSingles, false, 10, []string{"CELL-1", "CELL-2"})
	require.NoError(t, err)
	batch.ClearDomainEvents()

	require.NoError(t, batch.ReorderCell("CELL-2", 1))

	p1, ok := batch.PriorityForCell("CELL-1")
	require.True(t, ok)
	p2, ok := batch.PriorityForCell("CELL-2")
	require.True(t, ok)
	assert.Equal(t, 1, p1)
	assert.Equal(t, 1, p2) // ties are legal; queue sort breaks them by insertion order

	assert.ErrorIs(t, batch.ReorderCell("CELL-9", 1), ErrCellNotAssigned)
	assert.Len(t, batch.GetDomainEvents(), 1)
}

func TestBatch_PriorityForCell_LegacyFallback(t *testing.T) {
	batch, err := NewBatch("Batch 1", BatchTypeSingles, false, 10, []string{"CELL-1"})
	require.NoError(t, err)
	batch.Priority = 7
	batch.CellAssignments[0].Priority = 0 // legacy record without per-pair priority

	p, ok := batch.PriorityForCell("CELL-1")
	require.True(t, ok)
	assert.Equal(t, 7, p)
}
