package orders

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"strings"
	"time"

	"akstore/internal/apperr"
	"akstore/internal/db"
	"akstore/internal/domain/cart"
	"akstore/internal/domain/order"
	"akstore/internal/domain/product"
	"akstore/internal/domain/settings"
	"akstore/internal/util"
)

// Catalog resolves the current state of a product at placement time.
type Catalog interface {
	Get(ctx context.Context, id string) (product.Product, error)
}

type SettingsSource interface {
	Get(ctx context.Context) (settings.StoreSettings, error)
}

type Options struct {
	// StrictTransitions enforces the status lifecycle. Off, any status may
	// overwrite any other.
	StrictTransitions bool
	Now               func() time.Time
	Items             LineItemWriter
}

// Engine places orders and moves them through their status lifecycle.
type Engine struct {
	db       *db.DB
	catalog  Catalog
	settings SettingsSource
	opts     Options
}

func NewEngine(d *db.DB, catalog Catalog, store SettingsSource, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Items == nil {
		opts.Items = sqlLineItems{}
	}
	return &Engine{db: d, catalog: catalog, settings: store, opts: opts}
}

// PlaceOrder stores the order header and one line item per cart entry in a
// single transaction. An empty cart is not an error: it returns nil, nil.
// Unit prices and product snapshots come from the catalog, not the cart.
func (e *Engine) PlaceOrder(ctx context.Context, info order.CustomerInfo, items []cart.Item, total int64, userID *string) (*order.Order, error) {
	if len(items) == 0 {
		return nil, nil
	}
	info, err := normalizeCustomer(info)
	if err != nil {
		return nil, err
	}

	lines, computed, err := e.resolveLines(ctx, items)
	if err != nil {
		return nil, err
	}
	if total != 0 && total != computed {
		return nil, apperr.Invalid("order total %d does not match the items (%d)", total, computed)
	}
	if userID != nil && strings.TrimSpace(*userID) == "" {
		userID = nil
	}

	now := e.opts.Now()
	o := &order.Order{
		ID:            util.TimestampID("ORDER", now),
		CustomerName:  info.Name,
		Phone:         info.Phone,
		Address:       info.Address,
		Total:         computed,
		Status:        order.StatusPending,
		OrderDate:     util.TimestampOf(now),
		PaymentMethod: info.PaymentMethod,
		UserID:        userID,
	}

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return nil, apperr.TxFailed("could not place order", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertHeader(ctx, tx, o); err != nil {
		return nil, apperr.TxFailed("could not place order", err)
	}
	for i := range lines {
		lines[i].OrderID = o.ID
		if err := e.opts.Items.WriteLineItem(ctx, tx, &lines[i]); err != nil {
			return nil, apperr.TxFailed("could not place order", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.TxFailed("could not place order", err)
	}
	o.Items = lines
	return o, nil
}

func normalizeCustomer(info order.CustomerInfo) (order.CustomerInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)
	switch {
	case info.Name == "":
		return info, apperr.Invalid("customer name is required")
	case info.Phone == "":
		return info, apperr.Invalid("phone is required")
	case info.Address == "":
		return info, apperr.Invalid("address is required")
	}
	pm, err := order.ParsePaymentMethod(string(info.PaymentMethod))
	if err != nil {
		return info, apperr.Invalid("%s", err.Error())
	}
	info.PaymentMethod = pm
	return info, nil
}

// resolveLines snapshots every cart entry against the live catalog and sums the total.
func (e *Engine) resolveLines(ctx context.Context, items []cart.Item) ([]order.LineItem, int64, error) {
	lines := make([]order.LineItem, 0, len(items))
	var total int64
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, 0, apperr.Invalid("quantity for %s must be at least 1", it.Product.ID)
		}
		if it.Product.ID == "" {
			return nil, 0, apperr.Invalid("invalid reference: cart item without product id")
		}
		p, err := e.catalog.Get(ctx, it.Product.ID)
		if apperr.Is(err, apperr.NotFound) {
			return nil, 0, apperr.Invalid("invalid reference: product %s does not exist", it.Product.ID)
		}
		if err != nil {
			return nil, 0, err
		}
		for name, value := range it.SelectedOptions {
			if !p.HasOption(name, value) {
				return nil, 0, apperr.Invalid("product %s has no option %s=%s", p.ID, name, value)
			}
		}

		// reviews are not part of what was bought
		p.Reviews = []product.Review{}
		opts := maps.Clone(it.SelectedOptions)
		if opts == nil {
			opts = map[string]string{}
		}
		li := order.LineItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     p.Price,
			Product:   cart.Item{Product: p, Quantity: it.Quantity, SelectedOptions: opts},
		}
		total += li.LineTotal()
		lines = append(lines, li)
	}
	return lines, total, nil
}

// UpdateOrderStatus sets the status of order id. With strict transitions the
// move must follow the lifecycle and terminal orders answer Conflict; writing
// the current status again is a no-op either way.
func (e *Engine) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	if !status.Valid() {
		return apperr.Invalid("unknown order status %q", string(status))
	}
	if !e.opts.StrictTransitions {
		res, err := e.db.Exec(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFoundf("order %s not found", id)
		}
		return nil
	}

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("order %s not found", id)
	}
	if err != nil {
		return err
	}
	current := order.Status(raw)
	if current == status {
		return nil
	}
	if current.IsTerminal() {
		return apperr.Conflictf("order %s is already %s", id, current.Name())
	}
	if !current.CanTransitionTo(status) {
		return apperr.Conflictf("order %s cannot move from %s to %s", id, current.Name(), status.Name())
	}
	res, err := tx.Exec(ctx, `UPDATE orders SET status = ? WHERE id = ? AND status = ?`, string(status), id, raw)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflictf("order %s was changed concurrently", id)
	}
	return tx.Commit()
}

func (e *Engine) CancelOrder(ctx context.Context, id string) error {
	return e.UpdateOrderStatus(ctx, id, order.StatusCancelled)
}

// ListOrders returns orders newest first, each with its line items.
func (e *Engine) ListOrders(ctx context.Context, f Filter) ([]order.Order, error) {
	return listOrders(ctx, e.db, f)
}

// GetOrderWithItems always shows the snapshot stored with each line, even
// when the product has since been edited or deleted.
func (e *Engine) GetOrderWithItems(ctx context.Context, id string) (order.Order, error) {
	return getOrder(ctx, e.db, id)
}
