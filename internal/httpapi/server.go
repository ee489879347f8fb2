// Package httpapi exposes the quotation service over HTTP with gin.
package httpapi

import (
	"bytes"
	"context"
	_ "embed"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quoterag/internal/domain"
)

// Service is what the handlers need from the quotation service.
type Service interface {
	Quote(ctx context.Context, inquiry string, margin *float64) (*domain.Quote, error)
	ListPrices(ctx context.Context) ([]domain.PriceEntry, error)
	CountPrices(ctx context.Context) (int, error)
	AddPrice(ctx context.Context, c domain.Candidate) (string, error)
	DeletePrice(ctx context.Context, id string) error
	ClearPrices(ctx context.Context) (int, error)
	ImportText(ctx context.Context, text string) (domain.ImportResult, error)
	ImportFile(ctx context.Context, filename string, data []byte) (domain.ImportResult, error)
	ProposeDeletion(ctx context.Context, instruction string) (*domain.Proposal[domain.PriceEntry], error)
	ConfirmDeletion(ctx context.Context, ids []string) (int, error)
}

type Options struct {
	// Prefix the API routes are mounted under, e.g. /scene1/api.
	Prefix string
	// APIKey is the shared secret expected in X-API-Key. An empty key
	// rejects every protected request.
	APIKey         string
	MaxUploadBytes int64
}

//go:embed web/index.html
var indexHTML []byte

type Handler struct {
	svc       Service
	maxUpload int64
	page      []byte
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc Service, opts Options) *gin.Engine {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	prefix := "/" + strings.Trim(opts.Prefix, "/")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), CORSMiddleware())
	_ = r.SetTrustedProxies(nil)
	r.MaxMultipartMemory = opts.MaxUploadBytes

	h := &Handler{
		svc:       svc,
		maxUpload: opts.MaxUploadBytes,
		page:      bytes.ReplaceAll(indexHTML, []byte("{{API_PREFIX}}"), []byte(strings.TrimSuffix(prefix, "/"))),
	}

	r.GET("/", h.Index)
	if prefix != "/" {
		// the page is also served one level above the API, e.g. /scene1
		if page := strings.TrimSuffix(prefix, "/api"); page != prefix && page != "" {
			r.GET(page, h.Index)
		}
	}
	r.GET("/healthz", h.Health)

	api := r.Group(prefix)
	api.Use(APIKeyAuth(opts.APIKey))
	{
		api.POST("/quote", h.Quote)

		prices := api.Group("/prices")
		{
			prices.GET("", h.ListPrices)
			prices.POST("", h.AddPrice)
			prices.DELETE("", h.ClearPrices)
			prices.DELETE("/:id", h.DeletePrice)
			prices.POST("/import-text", h.ImportText)
			prices.POST("/import-file", h.ImportFile)
			prices.POST("/delete-by-query", h.DeleteByQuery)
			prices.POST("/delete-confirm", h.DeleteConfirm)
		}
	}
	return r
}

func (h *Handler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

func (h *Handler) Health(c *gin.Context) {
	n, err := h.svc.CountPrices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "entries": n})
}
