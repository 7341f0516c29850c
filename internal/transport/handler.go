package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/anime-shed/gradient-fade/internal/analyzer"
	"github.com/anime-shed/gradient-fade/internal/config"
	apperrors "github.com/anime-shed/gradient-fade/internal/errors"
	"github.com/anime-shed/gradient-fade/internal/handle"
	"github.com/anime-shed/gradient-fade/internal/intake"
	"github.com/anime-shed/gradient-fade/internal/logger"
	"github.com/anime-shed/gradient-fade/internal/metrics"
	"github.com/anime-shed/gradient-fade/internal/naming"
	"github.com/anime-shed/gradient-fade/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const thumbnailSize = 256

// Coordinator is the part of the submission coordinator the server renders.
type Coordinator interface {
	Submit(ctx context.Context) (handle.Handle, error)
	Snapshot() models.PipelineState
	CurrentInput() (models.ImageInput, bool)
	VisibleResult() (handle.Handle, string, bool)
	Registry() *handle.Registry
}

// InputNormalizer accepts file selections and paste events.
type InputNormalizer interface {
	Select(ctx context.Context, input models.ImageInput) error
	Clear(ctx context.Context) error
	Paste(ctx context.Context, event models.PasteEvent) intake.Outcome
}

type Dependencies struct {
	Coordinator Coordinator
	Normalizer  InputNormalizer
	Inspector   analyzer.ImageInspector
	Metrics     *metrics.Metrics
	Config      *config.Config
}

func NewHandler(deps Dependencies) http.Handler {
	if deps.Inspector == nil {
		deps.Inspector = analyzer.NewImageInspector()
	}
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(requestLimit(deps.Config.MaxImageBytes)),
		errorHandler(),
	)
	if deps.Metrics != nil {
		r.Use(httpMetrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Configure routes
	r.GET("/health", healthCheck)

	api := r.Group("/api")
	api.GET("/state", getState(deps))
	api.POST("/input", selectInput(deps))
	api.DELETE("/input", clearInput(deps))
	api.GET("/input/thumbnail", inputThumbnail(deps))
	api.POST("/paste", paste(deps))
	api.POST("/submit", submit(deps))

	r.GET(handle.AddressPrefix+":id", getResult(deps, false))
	r.GET(handle.AddressPrefix+":id/download", getResult(deps, true))

	return r
}

func getState(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Coordinator.Snapshot())
	}
}

// selectInput is the file picker: one multipart file, or none to clear.
func selectInput(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile(deps.Config.ImageFieldName)
		if errors.Is(err, http.ErrMissingFile) {
			if err := deps.Normalizer.Clear(c.Request.Context()); err != nil {
				respondError(c, apperrors.GetStatusCode(err), "failed to clear input", err)
				return
			}
			c.JSON(http.StatusOK, deps.Coordinator.Snapshot())
			return
		}
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid multipart body", err)
			return
		}
		defer file.Close()

		data, err := readLimited(file, deps.Config.MaxImageBytes)
		if err != nil {
			respondError(c, http.StatusRequestEntityTooLarge, "image too large", err)
			return
		}

		input := models.ImageInputFromBytes(header.Filename, header.Header.Get("Content-Type"), data)
		if err := deps.Normalizer.Select(c.Request.Context(), input); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to select input", err)
			return
		}
		c.JSON(http.StatusOK, deps.Coordinator.Snapshot())
	}
}

func clearInput(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deps.Normalizer.Clear(c.Request.Context()); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to clear input", err)
			return
		}
		c.JSON(http.StatusOK, deps.Coordinator.Snapshot())
	}
}

func paste(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PasteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		event, err := decodePaste(req)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid paste payload", err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.PasteFetchTimeout)
		defer cancel()

		outcome := deps.Normalizer.Paste(ctx, event)
		logger.WithFields(logrus.Fields{
			"handled": outcome.Handled,
			"channel": outcome.Channel,
			"reason":  outcome.Reason,
		}).Debug("Paste processed")

		c.JSON(http.StatusOK, models.PasteResponse{Handled: outcome.Handled, Channel: string(outcome.Channel)})
	}
}

func submit(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		h, err := deps.Coordinator.Submit(c.Request.Context())
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "submission failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"handle_id":          h.ID,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Submission completed")
		c.JSON(http.StatusOK, deps.Coordinator.Snapshot())
	}
}

func inputThumbnail(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		input, ok := deps.Coordinator.CurrentInput()
		if !ok {
			respondError(c, http.StatusNotFound, "no input selected", apperrors.NewNotFoundError("no input", nil))
			return
		}
		data, err := input.ReadAll(deps.Config.MaxImageBytes)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to read input", err)
			return
		}
		thumb, err := deps.Inspector.Thumbnail(data, thumbnailSize, thumbnailSize)
		if err != nil {
			respondError(c, http.StatusUnprocessableEntity, "input is not a decodable image", err)
			return
		}

		c.Header("Cache-Control", "no-store")
		c.Header("Content-Type", "image/png")
		c.Status(http.StatusOK)
		if err := png.Encode(c.Writer, thumb); err != nil {
			logger.WithError(err).Warn("Failed to write thumbnail")
		}
	}
}

// getResult serves the bytes behind a handle address. Downloads use the
// current output name when the handle is the displayed result.
func getResult(deps Dependencies, download bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		h, data, err := deps.Coordinator.Registry().Resolve(id)
		if err != nil {
			respondError(c, http.StatusNotFound, "result not available", apperrors.NewNotFoundError("result handle", err))
			return
		}

		if download {
			name := naming.DefaultOutputName
			if visible, outputName, ok := deps.Coordinator.VisibleResult(); ok && visible.ID == h.ID {
				name = outputName
			}
			c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, h.ContentType, data)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func decodePaste(req models.PasteRequest) (models.PasteEvent, error) {
	event := models.PasteEvent{Text: req.Text}

	for i, item := range req.Items {
		ci := models.ClipboardItem{Kind: item.Kind, Type: item.Type}
		if item.Kind == models.ClipboardKindFile && item.Data != "" {
			data, err := base64.StdEncoding.DecodeString(item.Data)
			if err != nil {
				return models.PasteEvent{}, fmt.Errorf("items[%d]: %w", i, err)
			}
			input := models.ImageInputFromBytes(item.Name, item.Type, data)
			ci.File = &input
		}
		event.Items = append(event.Items, ci)
	}

	for i, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return models.PasteEvent{}, fmt.Errorf("files[%d]: %w", i, err)
		}
		event.Files = append(event.Files, models.ImageInputFromBytes(f.Name, f.Type, data))
	}
	return event, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

// requestLimit leaves room for base64 and multipart overhead.
func requestLimit(maxImageBytes int64) int64 {
	return maxImageBytes*4/3 + 1<<20
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func httpMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
