package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/RishiKendai/shingle/internal/config"
	"github.com/RishiKendai/shingle/internal/models"
	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/RishiKendai/shingle/internal/repository"
	"github.com/RishiKendai/shingle/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Enqueuer hands comparison jobs to the stream worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *models.ComparisonJob) error
}

// Handler holds dependencies for handlers
type Handler struct {
	cfg         *config.Config
	svc         *service.Service
	redisClient goredis.Cmdable
	queue       Enqueuer
	computeSem  chan struct{} // nil means unbounded
}

// NewHandler creates a new handler. A nil redisClient disables the status
// endpoint and a nil queue disables asynchronous comparisons.
func NewHandler(cfg *config.Config, svc *service.Service, redisClient goredis.Cmdable, queue Enqueuer) *Handler {
	var sem chan struct{}
	if cfg.MaxConcurrentCompute > 0 {
		sem = make(chan struct{}, cfg.MaxConcurrentCompute)
	}

	return &Handler{
		cfg:         cfg,
		svc:         svc,
		redisClient: redisClient,
		queue:       queue,
		computeSem:  sem,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	h.runCompare(c, service.SourceAPI, req)
}

// CompareAsync queues a comparison and returns 202 with the job ID. The
// report is available from GetReport once the status is completed.
func (h *Handler) CompareAsync(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Asynchronous comparisons are disabled",
			Code:  "QUEUE_DISABLED",
		})
		return
	}

	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err := h.svc.Validate(req); err != nil {
		writeServiceError(c, err)
		return
	}

	job := &models.ComparisonJob{JobID: uuid.New().String(), Text1: req.Text1, Text2: req.Text2}
	if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
		log.Error().Err(err).Str("id", job.JobID).Msg("Failed to enqueue comparison")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to enqueue comparison",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusAccepted, models.StatusResponse{Step: models.StepQueued, ID: job.JobID})
}

func (h *Handler) CompareFiles(c *gin.Context) {
	text1, err := h.readUpload(c, "doc1")
	if err != nil {
		writeUploadError(c, err)
		return
	}
	text2, err := h.readUpload(c, "doc2")
	if err != nil {
		writeUploadError(c, err)
		return
	}

	h.runCompare(c, service.SourceUpload, models.CompareRequest{Text1: text1, Text2: text2})
}

func (h *Handler) CompareBatch(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	release, ok := h.acquire(c)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.ComputationTimeout)
	defer cancel()

	reports, err := h.svc.CompareBatch(ctx, req.Pairs)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BatchResponse{Reports: reports})
}

func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListReports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "limit must be a positive integer",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	reports, err := h.svc.ListRecent(c.Request.Context(), int64(limit))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) GetStatus(c *gin.Context) {
	id := c.Param("id")
	if h.redisClient == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Status tracking is not configured",
			Code:  "STATUS_NOT_FOUND",
		})
		return
	}

	step, err := plagiarism.GetStatus(c.Request.Context(), h.redisClient, id)
	if errors.Is(err, plagiarism.ErrStatusNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No status for id",
			Code:  "STATUS_NOT_FOUND",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to read status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to read status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Step: step, ID: id})
}

func (h *Handler) runCompare(c *gin.Context, source string, req models.CompareRequest) {
	release, ok := h.acquire(c)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.ComputationTimeout)
	defer cancel()

	report, err := h.svc.Compare(ctx, source, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// acquire takes a compute slot. The returned release must be called when ok.
func (h *Handler) acquire(c *gin.Context) (release func(), ok bool) {
	if h.computeSem == nil {
		return func() {}, true
	}

	select {
	case h.computeSem <- struct{}{}:
		return func() { <-h.computeSem }, true
	case <-c.Request.Context().Done():
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return nil, false
	}
}

var errUploadTooLarge = errors.New("upload too large")

func (h *Handler) readUpload(c *gin.Context, field string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("missing file %q: %w", field, err)
	}
	if h.cfg.MaxTextBytes > 0 && header.Size > int64(h.cfg.MaxTextBytes) {
		return "", fmt.Errorf("%s: %w", field, errUploadTooLarge)
	}

	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", field, err)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", field, err)
	}
	return string(data), nil
}

func writeUploadError(c *gin.Context, err error) {
	if errors.Is(err, errUploadTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: err.Error(),
			Code:  "TEXT_TOO_LARGE",
		})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: err.Error(),
		Code:  "INVALID_REQUEST",
	})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTextTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: "TEXT_TOO_LARGE"})
	case errors.Is(err, service.ErrInvalidEncoding):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_ENCODING"})
	case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrBatchTooLarge):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
	case errors.Is(err, repository.ErrReportNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Report not found", Code: "REPORT_NOT_FOUND"})
	case errors.Is(err, service.ErrPersistenceDisabled):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "REPORT_NOT_FOUND"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "Comparison timed out", Code: "REQUEST_TIMEOUT"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal error", Code: "INTERNAL_ERROR"})
	}
}
