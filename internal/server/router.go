// Package server assembles the gin engine: middleware, repos and the /api route table.
package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"akstore/internal/auth"
	"akstore/internal/brands"
	"akstore/internal/categories"
	"akstore/internal/db"
	"akstore/internal/httpx"
	"akstore/internal/initialdata"
	"akstore/internal/orders"
	"akstore/internal/products"
	"akstore/internal/reports"
	"akstore/internal/settings"
)

type Deps struct {
	// App holds the catalog and orders; System holds accounts and store
	// settings. They may be the same database.
	App    *db.DB
	System *db.DB
	JWT    *auth.JWTManager

	StrictTransitions bool
	CORSOrigins       []string
	Now               func() time.Time
}

func NewRouter(d Deps) *gin.Engine {
	if d.System == nil {
		d.System = d.App
	}

	// Catalog repos/handlers
	prodRepo := products.NewRepo(d.App)
	catRepo := categories.NewRepo(d.App)
	brandRepo := brands.NewRepo(d.App)
	prodHandler := products.NewHandler(prodRepo)
	catHandler := categories.NewHandler(catRepo)
	brandHandler := brands.NewHandler(brandRepo)

	// Accounts and settings
	userRepo := auth.NewUserRepo(d.System)
	settingsRepo := settings.NewRepo(d.System)
	authHandler := auth.NewHandler(auth.Dependencies{JWT: d.JWT, Users: userRepo})
	settingsHandler := settings.NewHandler(settingsRepo)

	engine := orders.NewEngine(d.App, prodRepo, settingsRepo, orders.Options{
		StrictTransitions: d.StrictTransitions,
		Now:               d.Now,
	})
	orderHandler := orders.NewHandler(engine)
	reportHandler := reports.NewHandler(reports.NewService(engine, userRepo))

	r := gin.New()
	r.Use(
		httpx.Recovery(),
		httpx.RequestID(),
		httpx.Logger(),
		httpx.SecurityHeaders(),
		corsMiddleware(d.CORSOrigins),
		httpx.BodyLimit(httpx.MaxBodyBytes),
	)

	api := r.Group("/api")
	api.GET("/healthz", health(d))
	api.GET("/initial-data", initialdata.Handler(initialdata.Sources{
		Products:   prodRepo,
		Categories: catRepo,
		Brands:     brandRepo,
		Settings:   settingsRepo,
		Users:      userRepo,
		Orders:     engine,
	}))

	// Auth routes
	api.POST("/login", authHandler.Login)
	api.POST("/register", authHandler.Register)
	api.GET("/me", auth.AuthMiddleware(d.JWT), authHandler.Me)

	api.GET("/products", prodHandler.List)
	api.GET("/products/:id", prodHandler.Get)
	api.POST("/products", prodHandler.Create)
	api.PUT("/products/:id", prodHandler.Update)
	api.DELETE("/products/:id", prodHandler.Delete)
	api.POST("/products/:id/reviews", prodHandler.AddReview)

	api.GET("/categories", catHandler.List)
	api.POST("/categories", catHandler.Create)
	api.PUT("/categories/:id", catHandler.Update)
	api.DELETE("/categories/:id", catHandler.Delete)

	api.GET("/brands", brandHandler.List)
	api.POST("/brands", brandHandler.Create)
	api.PUT("/brands/:id", brandHandler.Update)
	api.DELETE("/brands/:id", brandHandler.Delete)

	api.GET("/orders", orderHandler.List)
	// checkout works for guests; a valid token links the order to the account
	api.POST("/orders", auth.OptionalAuth(d.JWT), orderHandler.Place)
	api.GET("/orders/:id", orderHandler.Get)
	api.GET("/orders/:id/invoice", orderHandler.Invoice)
	api.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	api.POST("/orders/:id/cancel", orderHandler.Cancel)

	api.GET("/settings", settingsHandler.Get)
	api.PUT("/settings", settingsHandler.Update)

	api.GET("/reports/sales", reportHandler.Sales)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func health(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		status := "ok"
		code := http.StatusOK
		for _, conn := range []*db.DB{d.App, d.System} {
			if err := conn.Ping(ctx); err != nil {
				status = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "driver": string(d.App.Dialect())})
	}
}
