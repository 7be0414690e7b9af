package reports

import (
	"context"
	"sort"

	"akstore/internal/domain/order"
	"akstore/internal/domain/user"
	"akstore/internal/orders"
)

const (
	bestSellingLimit = 10
	recentLimit      = 5
)

type StatusCount struct {
	Status order.Status `json:"status"`
	Name   string       `json:"name"`
	Count  int          `json:"count"`
}

type ProductSales struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

type SalesReport struct {
	// TotalRevenue only counts completed orders.
	TotalRevenue        int64          `json:"totalRevenue"`
	GrossRevenue        int64          `json:"grossRevenue"`
	OrderCount          int            `json:"orderCount"`
	OrderStatusCounts   []StatusCount  `json:"orderStatusCounts"`
	TotalCustomers      int            `json:"totalCustomers"`
	BestSellingProducts []ProductSales `json:"bestSellingProducts"`
	RecentOrders        []order.Order  `json:"recentOrders"`
}

type OrderLister interface {
	ListOrders(ctx context.Context, f orders.Filter) ([]order.Order, error)
}

type UserLister interface {
	List(ctx context.Context) ([]user.User, error)
}

type Service struct {
	orders OrderLister
	users  UserLister
}

func NewService(o OrderLister, u UserLister) *Service {
	return &Service{orders: o, users: u}
}

func (s *Service) Sales(ctx context.Context) (SalesReport, error) {
	all, err := s.orders.ListOrders(ctx, orders.Filter{})
	if err != nil {
		return SalesReport{}, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return SalesReport{}, err
	}
	return Build(all, users), nil
}

// Build computes the report from line item snapshots. list must be newest first.
func Build(list []order.Order, users []user.User) SalesReport {
	rep := SalesReport{
		OrderCount:          len(list),
		OrderStatusCounts:   make([]StatusCount, 0, len(order.Statuses)),
		BestSellingProducts: []ProductSales{},
		RecentOrders:        list[:min(recentLimit, len(list))],
	}

	counts := make(map[order.Status]int, len(order.Statuses))
	sales := map[string]*ProductSales{}
	for _, o := range list {
		rep.GrossRevenue += o.Total
		if o.Status == order.StatusCompleted {
			rep.TotalRevenue += o.Total
		}
		counts[o.Status]++
		for _, li := range o.Items {
			ps, ok := sales[li.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: li.ProductID, Name: li.Product.Product.Name}
				sales[li.ProductID] = ps
			}
			ps.Quantity += li.Quantity
			ps.Revenue += li.LineTotal()
		}
	}
	for _, st := range order.Statuses {
		rep.OrderStatusCounts = append(rep.OrderStatusCounts, StatusCount{Status: st, Name: st.Name(), Count: counts[st]})
	}
	for _, u := range users {
		if u.Role == user.RoleCustomer {
			rep.TotalCustomers++
		}
	}

	for _, ps := range sales {
		rep.BestSellingProducts = append(rep.BestSellingProducts, *ps)
	}
	sort.Slice(rep.BestSellingProducts, func(i, j int) bool {
		a, b := rep.BestSellingProducts[i], rep.BestSellingProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.ProductID < b.ProductID
	})
	if len(rep.BestSellingProducts) > bestSellingLimit {
		rep.BestSellingProducts = rep.BestSellingProducts[:bestSellingLimit]
	}
	return rep
}
