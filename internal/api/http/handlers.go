package http

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/internal/engraving"
	apperrors "github.com/wms-platform/fulfillment-service/pkg/errors"
)

// Handlers holds the HTTP handlers for the fulfillment service. Shipping and
// engraving sessions are in-memory station state keyed by cart or chunk, so
// a station reconnect resumes instead of restarting.
type Handlers struct {
	queue       *application.BatchQueueService
	station     *application.StationService
	coordinator *application.StationCoordinator

	mu        sync.Mutex
	shipping  map[string]*application.ShippingSession
	engraving map[string]*engraving.Session
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	queue *application.BatchQueueService,
	station *application.StationService,
	coordinator *application.StationCoordinator,
) *Handlers {
	return &Handlers{
		queue:       queue,
		station:     station,
		coordinator: coordinator,
		shipping:    make(map[string]*application.ShippingSession),
		engraving:   make(map[string]*engraving.Session),
	}
}

func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	c.JSON(appErr.HTTPStatus, gin.H{
		"code":    appErr.Code,
		"error":   appErr.Message,
		"details": appErr.Details,
	})
}

func boolQuery(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.DefaultQuery(name, "false"))
	return err == nil && v
}

// --- queue management ---

// ListCells handles GET /api/v1/cells
func (h *Handlers) ListCells(c *gin.Context) {
	cells, err := h.queue.ListCells(c.Request.Context(), boolQuery(c, "activeOnly"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cells)
}

// GetCellQueue handles GET /api/v1/cells/:cellId/queue
func (h *Handlers) GetCellQueue(c *gin.Context) {
	query := application.GetCellQueueQuery{
		CellID:           c.Param("cellId"),
		IncludeCompleted: boolQuery(c, "includeCompleted"),
	}

	queue, err := h.queue.GetCellQueue(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, queue)
}

// GetPersonalizedPool handles GET /api/v1/batches/personalized
func (h *Handlers) GetPersonalizedPool(c *gin.Context) {
	query := application.GetPersonalizedPoolQuery{
		IncludeCompleted: boolQuery(c, "includeCompleted"),
	}

	batches, err := h.queue.GetPersonalizedPool(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batches)
}

// CreateBatchRequest represents the request body for creating a batch
type CreateBatchRequest struct {
	Name           string   `json:"name" binding:"required"`
	Type           string   `json:"type" binding:"required"`
	IsPersonalized bool     `json:"isPersonalized"`
	TotalOrders    int      `json:"totalOrders" binding:"required,min=1"`
	CellIDs        []string `json:"cellIds"`
}

// CreateBatch handles POST /api/v1/batches
func (h *Handlers) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.CreateBatchCommand{
		Name:           req.Name,
		Type:           req.Type,
		IsPersonalized: req.IsPersonalized,
		TotalOrders:    req.TotalOrders,
		CellIDs:        req.CellIDs,
	}

	batch, err := h.queue.CreateBatch(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// GetBatch handles GET /api/v1/batches/:batchId
func (h *Handlers) GetBatch(c *gin.Context) {
	batch, err := h.queue.GetBatch(c.Request.Context(), application.GetBatchQuery{
		BatchID: c.Param("batchId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// ReorderRequest represents the request body for moving a batch within one
// cell's queue
type ReorderRequest struct {
	CellID      string `json:"cellId" binding:"required"`
	TargetIndex *int   `json:"targetIndex" binding:"required"`
}

// ReorderBatch handles POST /api/v1/batches/:batchId/reorder
func (h *Handlers) ReorderBatch(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.ReorderBatchCommand{
		BatchID:     c.Param("batchId"),
		CellID:      req.CellID,
		TargetIndex: *req.TargetIndex,
	}

	queue, err := h.queue.Reorder(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, queue)
}

// EditCellsRequest represents the request body for replacing a batch's cell
// assignment set
type EditCellsRequest struct {
	CellIDs []string `json:"cellIds"`
}

// EditBatchCells handles PUT /api/v1/batches/:batchId/cells
func (h *Handlers) EditBatchCells(c *gin.Context) {
	var req EditCellsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.EditCellAssignmentsCommand{
		BatchID: c.Param("batchId"),
		CellIDs: req.CellIDs,
	}

	batch, err := h.queue.EditCellAssignments(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// DeleteBatch handles DELETE /api/v1/batches/:batchId
func (h *Handlers) DeleteBatch(c *gin.Context) {
	result, err := h.queue.Delete(c.Request.Context(), application.DeleteBatchCommand{
		BatchID: c.Param("batchId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResetQueue handles POST /api/v1/batches/reset
func (h *Handlers) ResetQueue(c *gin.Context) {
	result, err := h.queue.ResetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// --- carts and chunks ---

// ListCarts handles GET /api/v1/carts
func (h *Handlers) ListCarts(c *gin.Context) {
	carts, err := h.station.ListCarts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, carts)
}

// CheckoutRequest represents the request body for claiming a cart
type CheckoutRequest struct {
	WorkerName string `json:"workerName" binding:"required"`
	Phase      string `json:"phase" binding:"required"`
}

// CheckoutCart handles POST /api/v1/carts/:cartId/checkout
func (h *Handlers) CheckoutCart(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.CheckoutCartCommand{
		CartID:     c.Param("cartId"),
		WorkerName: req.WorkerName,
		Phase:      req.Phase,
	}

	cart, err := h.station.CheckoutCart(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// ReleaseCart handles POST /api/v1/carts/:cartId/release
func (h *Handlers) ReleaseCart(c *gin.Context) {
	if err := h.station.ReleaseCart(c.Request.Context(), c.Param("cartId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "released"})
}

// GetCartChunk handles GET /api/v1/carts/:cartId/chunk
func (h *Handlers) GetCartChunk(c *gin.Context) {
	chunk, err := h.station.GetCartChunk(c.Request.Context(), c.Param("cartId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chunk)
}

// CreateChunkRequest represents the request body for checking out a chunk
// onto a cart
type CreateChunkRequest struct {
	BatchID     string                            `json:"batchId" binding:"required"`
	CartID      string                            `json:"cartId" binding:"required"`
	ChunkNumber int                               `json:"chunkNumber" binding:"required,min=1"`
	Orders      []domain.ChunkOrder               `json:"orders" binding:"required"`
	Shelves     []domain.ChunkBulkBatchAssignment `json:"shelves"`
}

// CreateChunk handles POST /api/v1/chunks
func (h *Handlers) CreateChunk(c *gin.Context) {
	var req CreateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.CreateChunkCommand{
		BatchID:     req.BatchID,
		CartID:      req.CartID,
		ChunkNumber: req.ChunkNumber,
		Orders:      req.Orders,
		Shelves:     req.Shelves,
	}

	chunk, err := h.station.CreateChunk(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chunk)
}

// GetChunk handles GET /api/v1/chunks/:chunkId
func (h *Handlers) GetChunk(c *gin.Context) {
	chunk, err := h.station.GetChunk(c.Request.Context(), application.GetChunkQuery{
		ChunkID: c.Param("chunkId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chunk)
}

// MarkChunkPicked handles POST /api/v1/chunks/:chunkId/picked
func (h *Handlers) MarkChunkPicked(c *gin.Context) {
	chunk, err := h.station.MarkChunkPicked(c.Request.Context(), application.MarkChunkPickedCommand{
		ChunkID: c.Param("chunkId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chunk)
}

// CompleteOrderRequest represents the request body for marking one order
// shipped
type CompleteOrderRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	LabelURL       string `json:"labelUrl"`
}

// CompleteOrder handles POST /api/v1/chunks/:chunkId/orders/:orderNumber/complete
func (h *Handlers) CompleteOrder(c *gin.Context) {
	var req CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.CompleteOrderCommand{
		ChunkID:        c.Param("chunkId"),
		OrderNumber:    c.Param("orderNumber"),
		TrackingNumber: req.TrackingNumber,
		LabelURL:       req.LabelURL,
	}

	chunk, err := h.station.CompleteOrder(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chunk)
}

// CompleteCartRequest represents the request body for finishing a cart's
// shipping pass
type CompleteCartRequest struct {
	CartID string `json:"cartId" binding:"required"`
}

// CompleteCart handles POST /api/v1/chunks/:chunkId/complete
func (h *Handlers) CompleteCart(c *gin.Context) {
	var req CompleteCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.CompleteCartCommand{
		CartID:  req.CartID,
		ChunkID: c.Param("chunkId"),
	}

	chunk, err := h.station.CompleteCart(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, chunk)
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ReadyCheck handles GET /ready
func (h *Handlers) ReadyCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
