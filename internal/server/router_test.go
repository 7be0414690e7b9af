package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"akstore/internal/auth"
	"akstore/internal/db/dbtest"
	"akstore/internal/domain/cart"
	"akstore/internal/domain/order"
	"akstore/internal/domain/product"
	"akstore/internal/domain/user"
	"akstore/internal/seed"
	"akstore/internal/server"
)

func init() { gin.SetMode(gin.TestMode) }

type harness struct {
	t *testing.T
	r *gin.Engine
}

func newHarness(t *testing.T, split bool) harness {
	t.Helper()
	app := dbtest.New(t)
	system := app
	if split {
		system = dbtest.New(t)
	}
	require.NoError(t, seed.Apply(context.Background(), app, system))
	r := server.NewRouter(server.Deps{
		App:         app,
		System:      system,
		JWT:         auth.NewJWTManager(auth.JWTConfig{Issuer: "akstore", Secret: "s3cret"}),
		CORSOrigins: []string{"*"},
	})
	return harness{t: t, r: r}
}

func (h harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, false)
	w := h.do(http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","driver":"sqlite"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCheckoutFlow(t *testing.T) {
	for name, split := range map[string]bool{"shared": false, "split": true} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, split)

			w := h.do(http.MethodPost, "/api/login", "", user.LoginRequest{Email: "user@example.com", Password: "1"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var sess user.Session
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))

			body := order.PlaceRequest{
				CustomerInfo: order.CustomerInfo{Name: sess.Name, Phone: "0987654321", Address: "TP.HCM", PaymentMethod: order.PaymentCOD},
				Items: []cart.Item{
					{Product: product.Product{ID: "iphone-15-pro"}, Quantity: 2},
					{Product: product.Product{ID: "logitech-mx-master-3s"}, Quantity: 1},
				},
				Total: 60470000,
			}
			w = h.do(http.MethodPost, "/api/orders", sess.Token, body)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			var placed order.Order
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
			require.NotNil(t, placed.UserID)
			assert.Equal(t, "user-1", *placed.UserID)

			w = h.do(http.MethodGet, "/api/orders?userId=user-1", "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			var mine []order.Order
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
			require.Len(t, mine, 1)
			assert.Len(t, mine[0].Items, 2)

			w = h.do(http.MethodPut, "/api/orders/"+placed.ID+"/status", "", order.StatusRequest{Status: "Hoàn thành"})
			assert.Equal(t, http.StatusNoContent, w.Code)

			w = h.do(http.MethodGet, "/api/reports/sales", "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"totalRevenue":60470000`)

			w = h.do(http.MethodGet, "/api/initial-data", "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), placed.ID)
			assert.Contains(t, w.Body.String(), `"storeSettings"`)
		})
	}
}

func TestCatalogRoutes(t *testing.T) {
	h := newHarness(t, false)

	w := h.do(http.MethodPost, "/api/categories", "", map[string]string{"name": "Máy tính bảng"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodDelete, "/api/categories/laptop", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/api/products/iphone-15-pro/reviews", "", map[string]any{"author": "An", "rating": 3, "comment": "ok"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p product.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 4.0, p.Rating)
	assert.Equal(t, 3, p.ReviewCount)

	w = h.do(http.MethodGet, "/api/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"product nope not found"}`, w.Body.String())

	w = h.do(http.MethodPut, "/api/brands/apple", "", map[string]any{"name": "Apple", "logo": "x", "category_ids": []string{"dien-thoai", "laptop"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"category_ids":["dien-thoai","laptop"]`)

	w = h.do(http.MethodPut, "/api/brands/apple", "", map[string]any{"name": "Apple", "category_ids": []string{"laptop"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category_ids":["laptop"]`)

	w = h.do(http.MethodPut, "/api/brands/apple", "", map[string]any{"name": "Apple Inc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category_ids":["laptop"]`)

	w = h.do(http.MethodGet, "/api/settings", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
