package orders

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"akstore/internal/apperr"
	"akstore/internal/auth"
	"akstore/internal/domain/order"
	"akstore/internal/httpx"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// List filters by ?userId= or ?customerName=; with neither it returns every order.
func (h *Handler) List(c *gin.Context) {
	items, err := h.engine.ListOrders(c.Request.Context(), Filter{
		UserID:       c.Query("userId"),
		CustomerName: c.Query("customerName"),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c *gin.Context) {
	o, err := h.engine.GetOrderWithItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) Invoice(c *gin.Context) {
	inv, err := h.engine.Invoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Place answers 201 with the stored order. A logged-in caller that sent no
// userId gets the order linked to their account.
func (h *Handler) Place(c *gin.Context) {
	var req order.PlaceRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	if req.UserID == nil {
		if uid, ok := auth.UserID(c); ok {
			req.UserID = &uid
		}
	}
	o, err := h.engine.PlaceOrder(c.Request.Context(), req.CustomerInfo, req.Items, req.Total, req.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if o == nil {
		httpx.BadRequest(c, "cart is empty")
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req order.StatusRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		httpx.Error(c, apperr.Invalid("%s", err.Error()))
		return
	}
	if err := h.engine.UpdateOrderStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Cancel(c *gin.Context) {
	if err := h.engine.CancelOrder(c.Request.Context(), c.Param("id")); err != nil {
		httpx.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
