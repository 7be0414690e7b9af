package reports

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"akstore/internal/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Sales answers JSON by default; ?format=csv or ?format=tsv downloads the
// best selling table instead.
func (h *Handler) Sales(c *gin.Context) {
	rep, err := h.svc.Sales(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}

	var sep rune
	switch c.Query("format") {
	case "", "json":
		c.JSON(http.StatusOK, rep)
		return
	case "csv":
		sep = ','
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="best-selling.csv"`)
	case "tsv":
		sep = '\t'
		c.Header("Content-Type", "text/tab-separated-values; charset=utf-8")
	default:
		httpx.BadRequest(c, "format must be json, csv or tsv")
		return
	}
	c.Status(http.StatusOK)
	if err := WriteBestSelling(c.Writer, rep.BestSellingProducts, sep); err != nil {
		_ = c.Error(err)
	}
}
