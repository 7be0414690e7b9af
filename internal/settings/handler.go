package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"akstore/internal/domain/settings"
	"akstore/internal/httpx"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Get(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) Update(c *gin.Context) {
	var req settings.StoreSettings
	if !httpx.BindJSON(c, &req) {
		return
	}
	s, err := h.repo.Update(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
