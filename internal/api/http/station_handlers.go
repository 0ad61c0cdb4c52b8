package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/domain"
	"github.com/wms-platform/fulfillment-service/internal/engraving"
	"github.com/wms-platform/fulfillment-service/internal/verification"
)

// ShippingStatusResponse is the station view of one shipping session
type ShippingStatusResponse struct {
	State         verification.State           `json:"state"`
	BinNumber     int                          `json:"binNumber,omitempty"`
	ShelfNumber   int                          `json:"shelfNumber,omitempty"`
	Orders        []domain.ChunkOrder          `json:"orders,omitempty"`
	Hints         map[string][]int             `json:"hints,omitempty"`
	ShelfProgress []verification.ShelfProgress `json:"shelfProgress,omitempty"`
}

func shippingStatus(session *application.ShippingSession) ShippingStatusResponse {
	resp := ShippingStatusResponse{
		State:         session.State(),
		Hints:         session.Hints(),
		ShelfProgress: session.ShelfProgress(),
	}
	if unit, ok := session.Current(); ok {
		resp.BinNumber = unit.BinNumber
		resp.ShelfNumber = unit.ShelfNumber
		resp.Orders = unit.Orders
	}
	return resp
}

func (h *Handlers) shippingSession(cartID string) (*application.ShippingSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.shipping[cartID]
	return session, ok
}

// BeginShippingRequest represents the request body for starting a shipping
// session
type BeginShippingRequest struct {
	WorkerName string `json:"workerName" binding:"required"`
}

// BeginShipping handles POST /api/v1/stations/shipping/:cartId/begin
func (h *Handlers) BeginShipping(c *gin.Context) {
	cartID := c.Param("cartId")

	var req BeginShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A station reconnecting to its own cart resumes the live session
	if session, ok := h.shippingSession(cartID); ok {
		c.JSON(http.StatusOK, shippingStatus(session))
		return
	}

	session, err := h.coordinator.BeginShipping(c.Request.Context(), cartID, req.WorkerName)
	if err != nil {
		respondError(c, err)
		return
	}

	h.mu.Lock()
	h.shipping[cartID] = session
	h.mu.Unlock()

	c.JSON(http.StatusCreated, shippingStatus(session))
}

// GetShippingStatus handles GET /api/v1/stations/shipping/:cartId
func (h *Handlers) GetShippingStatus(c *gin.Context) {
	session, ok := h.shippingSession(c.Param("cartId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active shipping session"})
		return
	}

	c.JSON(http.StatusOK, shippingStatus(session))
}

// ScanRequest represents one scanned barcode
type ScanRequest struct {
	Code string `json:"code" binding:"required"`
}

// ScanItem handles POST /api/v1/stations/shipping/:cartId/scan
func (h *Handlers) ScanItem(c *gin.Context) {
	session, ok := h.shippingSession(c.Param("cartId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active shipping session"})
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := session.Scan(req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "state": session.State()})
}

// PrintLabels handles POST /api/v1/stations/shipping/:cartId/print
func (h *Handlers) PrintLabels(c *gin.Context) {
	session, ok := h.shippingSession(c.Param("cartId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active shipping session"})
		return
	}

	if err := session.PrintAndComplete(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shippingStatus(session))
}

// AdvanceUnit handles POST /api/v1/stations/shipping/:cartId/advance
func (h *Handlers) AdvanceUnit(c *gin.Context) {
	session, ok := h.shippingSession(c.Param("cartId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active shipping session"})
		return
	}

	if _, err := session.Advance(); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shippingStatus(session))
}

// SkipEmptyBin handles POST /api/v1/stations/shipping/:cartId/skip-empty
func (h *Handlers) SkipEmptyBin(c *gin.Context) {
	session, ok := h.shippingSession(c.Param("cartId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active shipping session"})
		return
	}

	if _, err := session.SkipEmpty(); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, shippingStatus(session))
}

// CompleteShipping handles POST /api/v1/stations/shipping/:cartId/complete
func (h *Handlers) CompleteShipping(c *gin.Context) {
	cartID := c.Param("cartId")

	session, ok := h.shippingSession(cartID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active shipping session"})
		return
	}

	if err := session.Complete(c.Request.Context(), cartID); err != nil {
		respondError(c, err)
		return
	}

	h.mu.Lock()
	delete(h.shipping, cartID)
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// --- engraving station ---

// EngravingStatusResponse is the station view of one engraving session
type EngravingStatusResponse struct {
	Items          []engraving.Item `json:"items"`
	CurrentIndex   int              `json:"currentIndex"`
	CompletedCount int              `json:"completedCount"`
	Paused         bool             `json:"paused"`
	Resumed        bool             `json:"resumed"`
	ActiveSeconds  int64            `json:"activeSeconds"`
	TotalPausedMs  int64            `json:"totalPausedMs"`
	PendingRetries int              `json:"pendingRetries"`
}

func engravingStatus(session *engraving.Session) EngravingStatusResponse {
	return EngravingStatusResponse{
		Items:          session.Items(),
		CurrentIndex:   session.CurrentIndex(),
		CompletedCount: session.CompletedCount(),
		Paused:         session.Paused(),
		Resumed:        session.Resumed(),
		ActiveSeconds:  session.ActiveSeconds(),
		TotalPausedMs:  session.TotalPausedMs(),
		PendingRetries: session.PendingRetries(),
	}
}

func (h *Handlers) engravingSession(chunkID string) (*engraving.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.engraving[chunkID]
	return session, ok
}

func (h *Handlers) dropEngravingSession(chunkID string) {
	h.mu.Lock()
	delete(h.engraving, chunkID)
	h.mu.Unlock()
}

// BeginEngravingRequest represents the request body for starting an
// engraving session
type BeginEngravingRequest struct {
	EngraverName string `json:"engraverName" binding:"required"`
}

// BeginEngraving handles POST /api/v1/stations/engraving/:chunkId/begin
func (h *Handlers) BeginEngraving(c *gin.Context) {
	chunkID := c.Param("chunkId")

	var req BeginEngravingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if session, ok := h.engravingSession(chunkID); ok {
		c.JSON(http.StatusOK, engravingStatus(session))
		return
	}

	session, err := h.coordinator.BeginEngraving(c.Request.Context(), chunkID, req.EngraverName)
	if err != nil {
		respondError(c, err)
		return
	}

	h.mu.Lock()
	h.engraving[chunkID] = session
	h.mu.Unlock()

	c.JSON(http.StatusCreated, engravingStatus(session))
}

// GetEngravingStatus handles GET /api/v1/stations/engraving/:chunkId
func (h *Handlers) GetEngravingStatus(c *gin.Context) {
	session, ok := h.engravingSession(c.Param("chunkId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active engraving session"})
		return
	}

	c.JSON(http.StatusOK, engravingStatus(session))
}

// MarkItemEngraved handles POST /api/v1/stations/engraving/:chunkId/items/:index/done
func (h *Handlers) MarkItemEngraved(c *gin.Context) {
	session, ok := h.engravingSession(c.Param("chunkId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active engraving session"})
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}

	if err := session.MarkDone(c.Request.Context(), index); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, engravingStatus(session))
}

// PauseEngraving handles POST /api/v1/stations/engraving/:chunkId/pause
func (h *Handlers) PauseEngraving(c *gin.Context) {
	session, ok := h.engravingSession(c.Param("chunkId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active engraving session"})
		return
	}

	if err := session.Pause(); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, engravingStatus(session))
}

// ResumeEngraving handles POST /api/v1/stations/engraving/:chunkId/resume
func (h *Handlers) ResumeEngraving(c *gin.Context) {
	session, ok := h.engravingSession(c.Param("chunkId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active engraving session"})
		return
	}

	if err := session.Resume(); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, engravingStatus(session))
}

// CompleteEngraving handles POST /api/v1/stations/engraving/:chunkId/complete
func (h *Handlers) CompleteEngraving(c *gin.Context) {
	chunkID := c.Param("chunkId")

	session, ok := h.engravingSession(chunkID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active engraving session"})
		return
	}

	metrics, err := session.Complete(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.dropEngravingSession(chunkID)

	c.JSON(http.StatusOK, metrics)
}

// CancelEngraving handles POST /api/v1/stations/engraving/:chunkId/cancel
func (h *Handlers) CancelEngraving(c *gin.Context) {
	chunkID := c.Param("chunkId")

	session, ok := h.engravingSession(chunkID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active engraving session"})
		return
	}

	if err := session.Cancel(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	h.dropEngravingSession(chunkID)

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}
