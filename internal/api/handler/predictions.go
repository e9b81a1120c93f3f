package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hweber/particletrack/internal/service"
)

// PredictionsHandler serves the stored prediction list.
type PredictionsHandler struct {
	pipeline *service.PipelineService
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(pipeline *service.PipelineService) *PredictionsHandler {
	return &PredictionsHandler{pipeline: pipeline}
}

// List handles GET /api/v1/predictions. A store failure is a 500, never an
// empty list: clients must be able to tell "no records" from "store down".
func (h *PredictionsHandler) List(c *gin.Context) {
	records, err := h.pipeline.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to fetch predictions from server storage.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"count":   len(records),
	})
}

// Export handles GET /api/v1/predictions/export, returning the CSV download.
func (h *PredictionsHandler) Export(c *gin.Context) {
	records, err := h.pipeline.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to generate CSV",
		})
		return
	}

	csvData := service.ExportCSV(records)
	c.Header("Content-Disposition", `attachment; filename="`+service.ExportFileName(time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv", csvData)
}

// Clear handles DELETE /api/v1/predictions.
func (h *PredictionsHandler) Clear(c *gin.Context) {
	deleted, err := h.pipeline.ClearAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear predictions from server storage.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "All results cleared",
		"deleted": deleted,
	})
}
