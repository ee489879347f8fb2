package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quoterag/internal/domain"
)

type quoteRequest struct {
	Inquiry string   `json:"inquiry"`
	Margin  *float64 `json:"margin"`
}

type priceRequest struct {
	Supplier string `json:"supplier"`
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Unit     string `json:"unit"`
	Price    any    `json:"price"`
}

type importTextRequest struct {
	Text string `json:"text"`
}

type deleteByQueryRequest struct {
	Query string `json:"query"`
}

type deleteConfirmRequest struct {
	IDs []string `json:"ids"`
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, &domain.ValidationError{Field: "body", Reason: err.Error()})
		return false
	}
	return true
}

func (h *Handler) Quote(c *gin.Context) {
	var req quoteRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.svc.Quote(c.Request.Context(), req.Inquiry, req.Margin)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) ListPrices(c *gin.Context) {
	entries, err := h.svc.ListPrices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.PriceEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) AddPrice(c *gin.Context) {
	var req priceRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.svc.AddPrice(c.Request.Context(), domain.Candidate{
		Supplier: req.Supplier,
		Name:     req.Name,
		Spec:     req.Spec,
		Unit:     req.Unit,
		Price:    req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": "ok"})
}

func (h *Handler) DeletePrice(c *gin.Context) {
	if err := h.svc.DeletePrice(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ClearPrices(c *gin.Context) {
	n, err := h.svc.ClearPrices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": n})
}

func (h *Handler) ImportText(c *gin.Context) {
	var req importTextRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.ImportText(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ImportFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, &domain.ValidationError{Field: "file", Reason: "upload too large"})
			return
		}
		writeError(c, &domain.ValidationError{Field: "file", Reason: "required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.svc.ImportFile(c.Request.Context(), file.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteByQuery only proposes; the client confirms with the returned ids.
func (h *Handler) DeleteByQuery(c *gin.Context) {
	var req deleteByQueryRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.ProposeDeletion(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": p.Items})
}

func (h *Handler) DeleteConfirm(c *gin.Context) {
	var req deleteConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	ids := req.IDs[:0]
	for _, id := range req.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	n, err := h.svc.ConfirmDeletion(c.Request.Context(), ids)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
