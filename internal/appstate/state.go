// Package appstate is the client side of a storefront session: the logged-in
// account and the cart, persisted after every change.
package appstate

import (
	"context"
	"maps"
	"sync"

	"akstore/internal/domain/cart"
	"akstore/internal/domain/order"
	"akstore/internal/domain/product"
	"akstore/internal/domain/user"
)

type Snapshot struct {
	User  *user.User `json:"user"`
	Token string     `json:"token,omitempty"`
	Cart  cart.Cart  `json:"cart"`
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{Token: s.Token}
	if s.User != nil {
		u := *s.User
		u.Addresses = append([]string(nil), s.User.Addresses...)
		out.User = &u
	}
	for _, it := range s.Cart.Items {
		it.SelectedOptions = maps.Clone(it.SelectedOptions)
		out.Cart.Items = append(out.Cart.Items, it)
	}
	return out
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req order.PlaceRequest) (*order.Order, error)
}

type State struct {
	mu    sync.Mutex
	snap  Snapshot
	store Persister
}

// New restores the last saved snapshot from p.
func New(p Persister) (*State, error) {
	snap, err := p.Load()
	if err != nil {
		return nil, err
	}
	return &State{snap: snap, store: p}, nil
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// update applies fn under the lock and persists the result.
func (s *State) update(fn func(*Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	return s.store.Save(s.snap.clone())
}

func (s *State) AddToCart(p product.Product, qty int, opts map[string]string) error {
	return s.update(func(snap *Snapshot) { snap.Cart.Add(p, qty, opts) })
}

func (s *State) RemoveFromCart(productID string, opts map[string]string) error {
	return s.update(func(snap *Snapshot) { snap.Cart.Remove(productID, opts) })
}

func (s *State) UpdateQuantity(productID string, opts map[string]string, qty int) error {
	return s.update(func(snap *Snapshot) { snap.Cart.SetQuantity(productID, opts, qty) })
}

func (s *State) ClearCart() error {
	return s.update(func(snap *Snapshot) { snap.Cart.Clear() })
}

func (s *State) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Cart.Total()
}

func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Cart.Count()
}

func (s *State) SetSession(sess user.Session) error {
	return s.update(func(snap *Snapshot) {
		u := sess.User
		snap.User = &u
		snap.Token = sess.Token
	})
}

// Logout drops the account; the cart stays.
func (s *State) Logout() error {
	return s.update(func(snap *Snapshot) {
		snap.User = nil
		snap.Token = ""
	})
}

// Checkout places the current cart. Once the order is stored the submitted
// lines are taken out of the cart; anything added while the request was in
// flight stays. On failure the cart is left as it was. An empty cart returns
// nil, nil.
func (s *State) Checkout(ctx context.Context, placer OrderPlacer, info order.CustomerInfo) (*order.Order, error) {
	snap := s.Snapshot()
	if len(snap.Cart.Items) == 0 {
		return nil, nil
	}
	req := order.PlaceRequest{
		CustomerInfo: info,
		Items:        snap.Cart.Items,
		Total:        snap.Cart.Total(),
	}
	if snap.User != nil {
		id := snap.User.ID
		req.UserID = &id
	}

	o, err := placer.PlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.update(func(snap *Snapshot) { snap.Cart.Subtract(req.Items) }); err != nil {
		return o, err
	}
	return o, nil
}
