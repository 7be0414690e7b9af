package order

import (
	"akstore/internal/domain/cart"
	"akstore/internal/util"
)

type Order struct {
	ID            string         `json:"id"`
	CustomerName  string         `json:"customerName"`
	Phone         string         `json:"phone"`
	Address       string         `json:"address"`
	Items         []LineItem     `json:"items"`
	Total         int64          `json:"total"`
	Status        Status         `json:"status"`
	OrderDate     util.Timestamp `json:"orderDate"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	UserID        *string        `json:"userId,omitempty"`
}

// LineItem is one purchased product. Product is the cart snapshot taken at
// placement time and is never refreshed from the catalog.
type LineItem struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
	Product   cart.Item `json:"product"`
}

func (li LineItem) LineTotal() int64 { return li.Price * int64(li.Quantity) }

type CustomerInfo struct {
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// PlaceRequest is the POST /api/orders body: customer fields inline, the
// cart as items and the total the client computed.
type PlaceRequest struct {
	CustomerInfo
	Items  []cart.Item `json:"items"`
	Total  int64       `json:"total"`
	UserID *string     `json:"userId,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}
