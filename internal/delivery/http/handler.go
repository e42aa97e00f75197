package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Client-facing error messages
const (
	msgURLRequired        = "URL is required"
	msgInvalidURL         = "Invalid URL. Only Newegg, Canadian Computers, and Best Buy links are allowed."
	msgFetchFailed        = "Failed to fetch page content"
	msgNotPrebuilt        = "The URL does not appear to be a gaming desktop or prebuilt PC. Only prebuilt PCs are allowed."
	msgExtractionFailed   = "Failed to extract parts and prices"
	msgInvalidExtraction  = "Failed to extract valid parts, prebuilt name, or prebuilt price"
	msgTimeout            = "Comparison timed out"
	msgCanceled           = "Request canceled"
	msgInternal           = "Internal server error"
	msgStorageUnavailable = "Failed to load saved comparisons"
)

// statusClientClosedRequest is the non-standard status used when the client disconnects
const statusClientClosedRequest = 499

// Comparer runs prebuilt-vs-parts comparisons
type Comparer interface {
	Compare(ctx context.Context, request *domain.CompareRequest) (*domain.ComparisonResult, error)
	RecentComparisons(ctx context.Context, limit int) ([]domain.StoredComparison, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparer       Comparer
	requestTimeout time.Duration
	log            logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(comparer Comparer, requestTimeout time.Duration, log logrus.FieldLogger) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 3 * time.Minute
	}
	return &Handler{
		comparer:       comparer,
		requestTimeout: requestTimeout,
		log:            log.WithField("component", "http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "prebuiltcheck-backend",
		"version": "1.0.0",
	})
}

// Compare handles prebuilt comparison requests
func (h *Handler) Compare(c *gin.Context) {
	var req domain.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgURLRequired})
		return
	}
	req.ClientIP = c.ClientIP()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.comparer.Compare(ctx, &req)
	if err != nil {
		// Stages may fold a cancelled call into their own error, so the context decides first
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		status, message := errorResponse(err)
		entry := h.log.WithError(err).WithFields(logrus.Fields{"url": req.URL, "status": status})
		switch {
		case status == statusClientClosedRequest:
			entry.Debug("client went away")
		case status >= http.StatusInternalServerError:
			entry.Error("comparison failed")
		default:
			entry.Info("comparison rejected")
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecentComparisons lists saved comparisons, newest first
func (h *Handler) RecentComparisons(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	comparisons, err := h.comparer.RecentComparisons(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("failed to list comparisons")
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgStorageUnavailable})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparisons": comparisons})
}

// errorResponse maps pipeline errors to a status code and client message
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, msgCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, msgURLRequired
	case errors.Is(err, domain.ErrUnsupportedDomain):
		return http.StatusBadRequest, msgInvalidURL
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusBadRequest, fetchFailureMessage(err)
	case errors.Is(err, domain.ErrClassificationRejected):
		return http.StatusBadRequest, msgNotPrebuilt
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusInternalServerError, msgExtractionFailed
	case errors.Is(err, domain.ErrInvalidExtraction):
		return http.StatusBadRequest, msgInvalidExtraction
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// fetchFailureMessage appends the upstream status or transport message to the fetch failure
func fetchFailureMessage(err error) string {
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		return msgFetchFailed
	}
	if fetchErr.StatusCode != 0 {
		return fmt.Sprintf("%s. Status code: %d", msgFetchFailed, fetchErr.StatusCode)
	}
	if fetchErr.Message != "" {
		return fmt.Sprintf("%s: %s", msgFetchFailed, fetchErr.Message)
	}
	return msgFetchFailed
}
