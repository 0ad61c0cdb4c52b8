package http

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

// SetupRoutes configures all HTTP routes for the fulfillment service
func SetupRoutes(router *gin.Engine, handlers *Handlers, m *metrics.Metrics) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadyCheck)
	router.GET("/metrics", m.Handler())

	v1 := router.Group("/api/v1")
	{
		cells := v1.Group("/cells")
		{
			cells.GET("", handlers.ListCells)
			cells.GET("/:cellId/queue", handlers.GetCellQueue)
		}

		batches := v1.Group("/batches")
		{
			batches.POST("", handlers.CreateBatch)
			batches.GET("/personalized", handlers.GetPersonalizedPool)
			batches.POST("/reset", handlers.ResetQueue)
			batches.GET("/:batchId", handlers.GetBatch)
			batches.POST("/:batchId/reorder", handlers.ReorderBatch)
			batches.PUT("/:batchId/cells", handlers.EditBatchCells)
			batches.DELETE("/:batchId", handlers.DeleteBatch)
		}

		carts := v1.Group("/carts")
		{
			carts.GET("", handlers.ListCarts)
			carts.POST("/:cartId/checkout", handlers.CheckoutCart)
			carts.POST("/:cartId/release", handlers.ReleaseCart)
			carts.GET("/:cartId/chunk", handlers.GetCartChunk)
		}

		chunks := v1.Group("/chunks")
		{
			chunks.POST("", handlers.CreateChunk)
			chunks.GET("/:chunkId", handlers.GetChunk)
			chunks.POST("/:chunkId/picked", handlers.MarkChunkPicked)
			chunks.POST("/:chunkId/orders/:orderNumber/complete", handlers.CompleteOrder)
			chunks.POST("/:chunkId/complete", handlers.CompleteCart)
		}

		shipping := v1.Group("/stations/shipping/:cartId")
		{
			shipping.POST("/begin", handlers.BeginShipping)
			shipping.GET("", handlers.GetShippingStatus)
			shipping.POST("/scan", handlers.ScanItem)
			shipping.POST("/print", handlers.PrintLabels)
			shipping.POST("/advance", handlers.AdvanceUnit)
			shipping.POST("/skip-empty", handlers.SkipEmptyBin)
			shipping.POST("/complete", handlers.CompleteShipping)
		}

		engraving := v1.Group("/stations/engraving/:chunkId")
		{
			engraving.POST("/begin", handlers.BeginEngraving)
			engraving.GET("", handlers.GetEngravingStatus)
			engraving.POST("/items/:index/done", handlers.MarkItemEngraved)
			engraving.POST("/pause", handlers.PauseEngraving)
			engraving.POST("/resume", handlers.ResumeEngraving)
			engraving.POST("/complete", handlers.CompleteEngraving)
			engraving.POST("/cancel", handlers.CancelEngraving)
		}
	}
}
