// Package initialdata serves the one-shot payload the storefront loads on start.
package initialdata

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"akstore/internal/domain/brand"
	"akstore/internal/domain/category"
	"akstore/internal/domain/order"
	"akstore/internal/domain/product"
	"akstore/internal/domain/settings"
	"akstore/internal/domain/user"
	"akstore/internal/httpx"
	"akstore/internal/orders"
)

type Payload struct {
	Products      []product.Product      `json:"products"`
	Categories    []category.Category    `json:"categories"`
	Brands        []brand.Brand          `json:"brands"`
	StoreSettings settings.StoreSettings `json:"storeSettings"`
	Users         []user.User            `json:"users"`
	Orders        []order.Order          `json:"orders"`
}

type Sources struct {
	Products interface {
		List(ctx context.Context) ([]product.Product, error)
	}
	Categories interface {
		List(ctx context.Context) ([]category.Category, error)
	}
	Brands interface {
		List(ctx context.Context) ([]brand.Brand, error)
	}
	Settings interface {
		Get(ctx context.Context) (settings.StoreSettings, error)
	}
	Users interface {
		List(ctx context.Context) ([]user.User, error)
	}
	Orders interface {
		ListOrders(ctx context.Context, f orders.Filter) ([]order.Order, error)
	}
}

// Load reads every source concurrently; the first failure cancels the rest.
func Load(ctx context.Context, src Sources) (Payload, error) {
	var p Payload
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.Products, err = src.Products.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		p.Categories, err = src.Categories.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		p.Brands, err = src.Brands.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		p.StoreSettings, err = src.Settings.Get(ctx)
		return err
	})
	g.Go(func() (err error) {
		p.Users, err = src.Users.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		p.Orders, err = src.Orders.ListOrders(ctx, orders.Filter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func Handler(src Sources) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := Load(c.Request.Context(), src)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
