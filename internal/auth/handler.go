package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"akstore/internal/apperr"
	"akstore/internal/domain/user"
	"akstore/internal/httpx"
)

type Dependencies struct {
	JWT      *JWTManager
	Users    *UserRepo
	Accounts *Service
}

type Handler struct {
	deps Dependencies
}

func NewHandler(d Dependencies) *Handler {
	if d.Accounts == nil {
		d.Accounts = NewService(d.Users)
	}
	return &Handler{deps: d}
}

func (h *Handler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	u, err := h.deps.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	h.respondSession(c, http.StatusCreated, u)
}

func (h *Handler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !httpx.BindJSON(c, &req) {
		return
	}
	u, err := h.deps.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, u)
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := UserID(c)
	if !ok {
		httpx.Error(c, apperr.New(apperr.Unauthorized, "not logged in"))
		return
	}
	u, err := h.deps.Users.ByID(c.Request.Context(), uid)
	if apperr.Is(err, apperr.NotFound) {
		// token outlived its account
		httpx.Error(c, apperr.New(apperr.Unauthorized, "session no longer valid"))
		return
	}
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) respondSession(c *gin.Context, status int, u user.User) {
	token, exp, err := h.deps.JWT.Sign(u.ID, string(u.Role))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(status, user.Session{User: u, Token: token, TokenExp: exp})
}
