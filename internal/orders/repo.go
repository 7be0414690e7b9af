package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"akstore/internal/apperr"
	"akstore/internal/db"
	"akstore/internal/domain/order"
)

// LineItemWriter persists one line item inside the placement transaction and
// fills in its id.
type LineItemWriter interface {
	WriteLineItem(ctx context.Context, q db.Querier, li *order.LineItem) error
}

type sqlLineItems struct{}

func (sqlLineItems) WriteLineItem(ctx context.Context, q db.Querier, li *order.LineItem) error {
	snapshot, err := json.Marshal(li.Product)
	if err != nil {
		return err
	}
	return q.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price, product)
		VALUES (?,?,?,?,?)
		RETURNING id
	`, li.OrderID, li.ProductID, li.Quantity, li.Price, string(snapshot)).Scan(&li.ID)
}

type Filter struct {
	UserID string
	// CustomerName matches exactly; kept for clients that predate userId.
	CustomerName string
}

func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != "" {
		conds = append(conds, "o.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.CustomerName != "" {
		conds = append(conds, "o.customer_name = ?")
		args = append(args, f.CustomerName)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func insertHeader(ctx context.Context, q db.Querier, o *order.Order) error {
	_, err := q.Exec(ctx, `
		INSERT INTO orders (id, customer_name, phone, address, total, status, order_date, payment_method, user_id)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, o.ID, o.CustomerName, o.Phone, o.Address, o.Total, string(o.Status), int64(o.OrderDate), string(o.PaymentMethod), nullString(o.UserID))
	return err
}

const orderColumns = `o.id, o.customer_name, o.phone, o.address, o.total, o.status, o.order_date, o.payment_method, o.user_id`

func listOrders(ctx context.Context, q db.Querier, f Filter) ([]order.Order, error) {
	where, args := f.where()
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders o`+where+` ORDER BY o.order_date DESC, o.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []order.Order{}
	index := map[string]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.product
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id`+where+`
		ORDER BY oi.id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		li, err := scanLineItem(items)
		if err != nil {
			return nil, err
		}
		if i, ok := index[li.OrderID]; ok {
			out[i].Items = append(out[i].Items, li)
		}
	}
	return out, items.Err()
}

func getOrder(ctx context.Context, q db.Querier, id string) (order.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, apperr.NotFoundf("order %s not found", id)
	}
	if err != nil {
		return order.Order{}, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price, product
		FROM order_items WHERE order_id = ? ORDER BY id ASC
	`, id)
	if err != nil {
		return order.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return order.Order{}, err
		}
		o.Items = append(o.Items, li)
	}
	return o, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (order.Order, error) {
	var (
		o          order.Order
		status, pm string
		userID     sql.NullString
	)
	if err := s.Scan(&o.ID, &o.CustomerName, &o.Phone, &o.Address, &o.Total, &status, &o.OrderDate, &pm, &userID); err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	o.PaymentMethod = order.PaymentMethod(pm)
	if userID.Valid {
		v := userID.String
		o.UserID = &v
	}
	o.Items = []order.LineItem{}
	return o, nil
}

func scanLineItem(s scanner) (order.LineItem, error) {
	var (
		li       order.LineItem
		snapshot string
	)
	if err := s.Scan(&li.ID, &li.OrderID, &li.ProductID, &li.Quantity, &li.Price, &snapshot); err != nil {
		return order.LineItem{}, err
	}
	if err := json.Unmarshal([]byte(snapshot), &li.Product); err != nil {
		return order.LineItem{}, fmt.Errorf("order item %d snapshot: %w", li.ID, err)
	}
	return li, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
