package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/usecase"
)

const (
	serviceName    = "tradeflow-supplier-search"
	serviceVersion = "1.0.0"
)

// SupplierSearcher is the aggregator surface the handlers need
type SupplierSearcher interface {
	SearchSuppliers(ctx context.Context, query string, limit int, adapterFilter []string) ([]domain.ProductResult, error)
	ClearCache(ctx context.Context) error
	Sources() []usecase.SourceInfo
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	suppliers SupplierSearcher
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. A nil searcher makes the supplier
// endpoints answer 503.
func NewHandler(suppliers SupplierSearcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{suppliers: suppliers, logger: logger}
}

// SearchRequest is the POST body for supplier searches
type SearchRequest struct {
	Query   string   `json:"query"`
	Limit   int      `json:"limit"`
	Sources []string `json:"sources"`
}

// SearchResponse wraps ranked results. AllEstimated lets clients warn that
// no listed price was observed.
type SearchResponse struct {
	Query        string                 `json:"query"`
	Count        int                    `json:"count"`
	Results      []domain.ProductResult `json:"results"`
	AllEstimated bool                   `json:"allEstimated"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// SearchSuppliersGET handles GET /suppliers/search?q=&limit=&sources=a,b
func (h *Handler) SearchSuppliersGET(c *gin.Context) {
	req := SearchRequest{Query: c.Query("q")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		req.Limit = limit
	}
	if raw := c.Query("sources"); raw != "" {
		req.Sources = strings.Split(raw, ",")
	}

	h.search(c, req)
}

// SearchSuppliersPOST handles POST /suppliers/search with a JSON body
func (h *Handler) SearchSuppliersPOST(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	h.search(c, req)
}

func (h *Handler) search(c *gin.Context, req SearchRequest) {
	if h.suppliers == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "supplier search not configured"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.Limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must not be negative"})
		return
	}

	results, err := h.suppliers.SearchSuppliers(c.Request.Context(), req.Query, req.Limit, req.Sources)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:        req.Query,
		Count:        len(results),
		Results:      results,
		AllEstimated: domain.AllEstimated(results),
	})
}

// ListSources returns the registered supplier sources
func (h *Handler) ListSources(c *gin.Context) {
	if h.suppliers == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "supplier search not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": h.suppliers.Sources()})
}

// ClearCache drops all cached supplier searches
func (h *Handler) ClearCache(c *gin.Context) {
	if h.suppliers == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "supplier search not configured"})
		return
	}
	if err := h.suppliers.ClearCache(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "query has no searchable characters"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "supplier search timed out"})
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads this
		c.Status(499)
	default:
		h.logger.Error("supplier request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
