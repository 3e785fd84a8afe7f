package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// Extractor runs one document. *pipeline.Pipeline satisfies it.
type Extractor interface {
	Run(ctx context.Context, in pipeline.Input) pipeline.Result
}

// RunReader is the read side of the run store.
type RunReader interface {
	Get(ctx context.Context, id uuid.UUID) (entity.PipelineRun, error)
	ListRecent(ctx context.Context, limit int) ([]entity.PipelineRun, error)
	Count(ctx context.Context) (int, error)
}

type extractRequest struct {
	Data      string `json:"data"`
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	FileSize  int64  `json:"fileSize"`
	VendorKey string `json:"vendorKey"`
}

// Handler serves the HTTP ingestion surface.
type Handler struct {
	extractor      Extractor
	runs           RunReader
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewHandler(extractor Extractor, runs RunReader, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 25 << 20
	}
	return &Handler{extractor: extractor, runs: runs, maxUploadBytes: maxUploadBytes, logger: logger}
}

// NewRouter wires the routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), h.requestContext())
	router.MaxMultipartMemory = h.maxUploadBytes

	router.GET("/healthz", h.Health)
	api := router.Group("/v1")
	{
		api.POST("/invoices/extract", h.Extract)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
	}
	return router
}

func (h *Handler) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
		h.logger.Info("http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "invoice-extractor"})
}

// Extract accepts either a JSON body or a multipart upload with a "file"
// part. Pipeline failures are reported in the body with status 200; only
// malformed requests get an error status.
func (h *Handler) Extract(c *gin.Context) {
	var in pipeline.Input
	var err error
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		in, err = h.multipartInput(c)
	} else {
		in, err = h.jsonInput(c)
	}
	if err != nil {
		h.sendError(c, err)
		return
	}
	res := h.extractor.Run(c.Request.Context(), in)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) jsonInput(c *gin.Context) (pipeline.Input, error) {
	// base64 inflates the payload by a third
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes*4/3+4096))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.Input{}, common.NewAppError("REQUEST_TOO_LARGE", "request body too large", common.ErrInvalidInput)
		}
		return pipeline.Input{}, common.NewAppError("BAD_REQUEST", "cannot read request body", errors.Join(common.ErrInvalidInput, err))
	}
	if err := validateExtractRequest(body); err != nil {
		return pipeline.Input{}, common.NewAppError("VALIDATION_ERROR", err.Error(), common.ErrInvalidInput)
	}
	var req extractRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&req); err != nil {
		return pipeline.Input{}, common.NewAppError("BAD_REQUEST", "malformed json", errors.Join(common.ErrInvalidInput, err))
	}
	return pipeline.Input{
		Base64:    req.Data,
		Text:      req.Text,
		Filename:  req.Filename,
		MimeType:  req.MimeType,
		FileSize:  req.FileSize,
		VendorKey: req.VendorKey,
	}, nil
}

func (h *Handler) multipartInput(c *gin.Context) (pipeline.Input, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return pipeline.Input{}, common.NewAppError("VALIDATION_ERROR", "file missing", common.ErrInvalidInput)
	}
	vendorKey := c.PostForm("vendorKey")
	if err := common.NewValidator().
		Field("file.filename", fh.Filename, common.Required, common.MaxLength(255)).
		Field("vendorKey", vendorKey, common.MaxLength(64), common.VendorKey).
		Field("file.size", fh.Size, common.IntRange(1, h.maxUploadBytes)).
		Err(); err != nil {
		return pipeline.Input{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return pipeline.Input{}, common.NewAppError("BAD_REQUEST", "cannot open upload", errors.Join(common.ErrInvalidInput, err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return pipeline.Input{}, common.NewAppError("BAD_REQUEST", "cannot read upload", errors.Join(common.ErrInvalidInput, err))
	}
	return pipeline.Input{
		Data:      data,
		Filename:  fh.Filename,
		MimeType:  fh.Header.Get("Content-Type"),
		FileSize:  fh.Size,
		VendorKey: vendorKey,
	}, nil
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			h.sendError(c, common.NewAppError("VALIDATION_ERROR", "limit must be between 1 and 500", common.ErrInvalidInput))
			return
		}
		limit = n
	}
	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.sendError(c, err)
		return
	}
	total, err := h.runs.Count(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}
	if runs == nil {
		runs = []entity.PipelineRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": total})
}

func (h *Handler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.sendError(c, common.NewAppError("VALIDATION_ERROR", "id must be a UUID", common.ErrInvalidInput))
		return
	}
	run, err := h.runs.Get(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) sendError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	code := "INTERNAL"
	message := "internal error"
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code, message = appErr.Code, appErr.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", common.RequestIDFromContext(c.Request.Context()), "error", err)
	} else {
		h.logger.Warn("request rejected", "request_id", common.RequestIDFromContext(c.Request.Context()), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}
