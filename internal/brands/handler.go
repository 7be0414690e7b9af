package brands

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"akstore/internal/httpx"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create links the brand to category_ids; an unknown category id is a 400.
func (h *Handler) Create(c *gin.Context) {
	var req Input
	if !httpx.BindJSON(c, &req) {
		return
	}
	b, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) Update(c *gin.Context) {
	var req Input
	if !httpx.BindJSON(c, &req) {
		return
	}
	b, err := h.repo.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
