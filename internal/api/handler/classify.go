package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hweber/particletrack/internal/service"
)

// maxUploadBytes caps one multipart submission.
const maxUploadBytes = 32 << 20

// ClassifyHandler accepts image batches and runs them through the pipeline.
type ClassifyHandler struct {
	pipeline *service.PipelineService
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(pipeline *service.PipelineService) *ClassifyHandler {
	return &ClassifyHandler{pipeline: pipeline}
}

// batchResponse is the JSON shape of a batch submission result.
type batchResponse struct {
	Persisted int                   `json:"persisted"`
	Failed    int                   `json:"failed"`
	Failures  []service.ImageResult `json:"failures,omitempty"`
	Results   []service.ImageResult `json:"results"`
}

// Classify handles POST /api/v1/classify. Multipart form, one or more files
// under the "images" field. Per-image failures are reported per image; the
// request itself only fails when no readable file arrives.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form: " + err.Error()})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided, use the 'images' form field"})
		return
	}

	subs := make([]service.Submission, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open " + fh.Filename + ": " + err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename + ": " + err.Error()})
			return
		}
		subs = append(subs, service.Submission{FileName: fh.Filename, Data: data})
	}

	batch := h.pipeline.ProcessBatch(c.Request.Context(), subs)

	c.JSON(http.StatusOK, batchResponse{
		Persisted: batch.Persisted,
		Failed:    batch.Failed,
		Failures:  batch.Failures(),
		Results:   batch.Results,
	})
}
