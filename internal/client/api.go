package client

import (
	"context"
	"net/http"
	"net/url"

	"akstore/internal/domain/order"
	"akstore/internal/domain/product"
	"akstore/internal/domain/settings"
	"akstore/internal/domain/user"
	"akstore/internal/initialdata"
	"akstore/internal/orders"
	"akstore/internal/products"
	"akstore/internal/reports"
)

func (c *Client) InitialData(ctx context.Context) (initialdata.Payload, error) {
	var p initialdata.Payload
	err := c.do(ctx, http.MethodGet, "/initial-data", nil, &p)
	return p, err
}

// Login stores the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (user.Session, error) {
	var s user.Session
	if err := c.do(ctx, http.MethodPost, "/login", user.LoginRequest{Email: email, Password: password}, &s); err != nil {
		return user.Session{}, err
	}
	c.SetToken(s.Token)
	return s, nil
}

func (c *Client) Register(ctx context.Context, req user.RegisterRequest) (user.Session, error) {
	var s user.Session
	if err := c.do(ctx, http.MethodPost, "/register", req, &s); err != nil {
		return user.Session{}, err
	}
	c.SetToken(s.Token)
	return s, nil
}

func (c *Client) Me(ctx context.Context) (user.User, error) {
	var u user.User
	err := c.do(ctx, http.MethodGet, "/me", nil, &u)
	return u, err
}

func (c *Client) Products(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	err := c.do(ctx, http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) Product(ctx context.Context, id string) (product.Product, error) {
	var p product.Product
	err := c.do(ctx, http.MethodGet, "/products/"+pathEscape(id), nil, &p)
	return p, err
}

// AddReview returns the product with its refreshed rating and reviews.
func (c *Client) AddReview(ctx context.Context, productID string, in products.ReviewInput) (product.Product, error) {
	var p product.Product
	err := c.do(ctx, http.MethodPost, "/products/"+pathEscape(productID)+"/reviews", in, &p)
	return p, err
}

func (c *Client) PlaceOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error) {
	var o order.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) Orders(ctx context.Context, f orders.Filter) ([]order.Order, error) {
	q := url.Values{}
	if f.UserID != "" {
		q.Set("userId", f.UserID)
	}
	if f.CustomerName != "" {
		q.Set("customerName", f.CustomerName)
	}
	endpoint := "/orders"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var out []order.Order
	err := c.do(ctx, http.MethodGet, endpoint, nil, &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, id string) (order.Order, error) {
	var o order.Order
	err := c.do(ctx, http.MethodGet, "/orders/"+pathEscape(id), nil, &o)
	return o, err
}

func (c *Client) Invoice(ctx context.Context, id string) (orders.Invoice, error) {
	var inv orders.Invoice
	err := c.do(ctx, http.MethodGet, "/orders/"+pathEscape(id)+"/invoice", nil, &inv)
	return inv, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	return c.do(ctx, http.MethodPut, "/orders/"+pathEscape(id)+"/status", order.StatusRequest{Status: string(status)}, nil)
}

func (c *Client) CancelOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/orders/"+pathEscape(id)+"/cancel", nil, nil)
}

func (c *Client) Settings(ctx context.Context) (settings.StoreSettings, error) {
	var s settings.StoreSettings
	err := c.do(ctx, http.MethodGet, "/settings", nil, &s)
	return s, err
}

func (c *Client) UpdateSettings(ctx context.Context, s settings.StoreSettings) (settings.StoreSettings, error) {
	var out settings.StoreSettings
	err := c.do(ctx, http.MethodPut, "/settings", s, &out)
	return out, err
}

func (c *Client) SalesReport(ctx context.Context) (reports.SalesReport, error) {
	var rep reports.SalesReport
	err := c.do(ctx, http.MethodGet, "/reports/sales", nil, &rep)
	return rep, err
}
