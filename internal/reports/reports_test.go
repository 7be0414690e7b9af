package reports_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
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
	"akstore/internal/orders"
	"akstore/internal/products"
	"akstore/internal/reports"
	"akstore/internal/seed"
	"akstore/internal/settings"
)

func init() { gin.SetMode(gin.TestMode) }

func line(id, name string, qty int, price int64) order.LineItem {
	return order.LineItem{
		ProductID: id,
		Quantity:  qty,
		Price:     price,
		Product:   cart.Item{Product: product.Product{ID: id, Name: name, Price: price}, Quantity: qty},
	}
}

func TestBuild(t *testing.T) {
	list := []order.Order{
		{ID: "o3", Status: order.StatusCompleted, Total: 300, Items: []order.LineItem{line("a", "A", 2, 150)}},
		{ID: "o2", Status: order.StatusPending, Total: 250, Items: []order.LineItem{line("b", "B", 1, 200), line("a", "A", 1, 50)}},
		{ID: "o1", Status: order.StatusCompleted, Total: 400, Items: []order.LineItem{line("b", "B", 2, 200)}},
	}
	users := []user.User{{Role: user.RoleAdmin}, {Role: user.RoleCustomer}, {Role: user.RoleCustomer}}

	rep := reports.Build(list, users)
	assert.Equal(t, int64(700), rep.TotalRevenue)
	assert.Equal(t, int64(950), rep.GrossRevenue)
	assert.Equal(t, 3, rep.OrderCount)
	assert.Equal(t, 2, rep.TotalCustomers)
	assert.Len(t, rep.RecentOrders, 3)

	require.Len(t, rep.OrderStatusCounts, 5)
	assert.Equal(t, reports.StatusCount{Status: order.StatusPending, Name: "Pending", Count: 1}, rep.OrderStatusCounts[0])
	assert.Equal(t, 0, rep.OrderStatusCounts[1].Count)
	assert.Equal(t, 2, rep.OrderStatusCounts[3].Count)
	assert.Equal(t, 0, rep.OrderStatusCounts[4].Count)

	// equal quantities fall back to revenue
	require.Len(t, rep.BestSellingProducts, 2)
	assert.Equal(t, reports.ProductSales{ProductID: "b", Name: "B", Quantity: 3, Revenue: 600}, rep.BestSellingProducts[0])
	assert.Equal(t, reports.ProductSales{ProductID: "a", Name: "A", Quantity: 3, Revenue: 350}, rep.BestSellingProducts[1])
}

func TestBuildLimits(t *testing.T) {
	var list []order.Order
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("p%02d", i)
		list = append(list, order.Order{ID: "o" + id, Status: order.StatusShipped, Total: 10, Items: []order.LineItem{line(id, id, i+1, 10)}})
	}
	rep := reports.Build(list, nil)
	assert.Len(t, rep.RecentOrders, 5)
	require.Len(t, rep.BestSellingProducts, 10)
	assert.Equal(t, "p11", rep.BestSellingProducts[0].ProductID)
	assert.Zero(t, rep.TotalRevenue)

	empty := reports.Build(nil, nil)
	assert.Empty(t, empty.BestSellingProducts)
	assert.NotNil(t, empty.BestSellingProducts)
	assert.Len(t, empty.OrderStatusCounts, 5)
}

func TestWriteBestSelling(t *testing.T) {
	var buf bytes.Buffer
	rows := []reports.ProductSales{{Name: "Chuột, không dây", Quantity: 2, Revenue: 4980000}}
	require.NoError(t, reports.WriteBestSelling(&buf, rows, ','))
	assert.Equal(t, "Sản phẩm,Số lượng bán,Doanh thu (VND)\n\"Chuột, không dây\",2,4980000\n", buf.String())

	buf.Reset()
	require.NoError(t, reports.WriteBestSelling(&buf, rows, '\t'))
	assert.Equal(t, "Sản phẩm\tSố lượng bán\tDoanh thu (VND)\nChuột, không dây\t2\t4980000\n", buf.String())
}

func TestSalesHandler(t *testing.T) {
	d := dbtest.New(t)
	ctx := context.Background()
	require.NoError(t, seed.Apply(ctx, d, d))
	engine := orders.NewEngine(d, products.NewRepo(d), settings.NewRepo(d), orders.Options{})

	info := order.CustomerInfo{Name: "Nhật Anh", Phone: "0987654321", Address: "HCM", PaymentMethod: order.PaymentMomo}
	mouse := cart.Item{Product: product.Product{ID: "logitech-mx-master-3s"}, Quantity: 2}
	done, err := engine.PlaceOrder(ctx, info, []cart.Item{mouse}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, engine.UpdateOrderStatus(ctx, done.ID, order.StatusCompleted))
	phone := cart.Item{Product: product.Product{ID: "iphone-15-pro"}, Quantity: 1}
	_, err = engine.PlaceOrder(ctx, info, []cart.Item{phone}, 0, nil)
	require.NoError(t, err)

	h := reports.NewHandler(reports.NewService(engine, auth.NewUserRepo(d)))
	r := gin.New()
	r.GET("/api/reports/sales", h.Sales)

	get := func(q string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/sales"+q, nil))
		return w
	}

	w := get("")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalRevenue":4980000`)
	assert.Contains(t, w.Body.String(), `"grossRevenue":33970000`)
	assert.Contains(t, w.Body.String(), `"totalCustomers":1`)

	w = get("?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Logitech MX Master 3S", "2", "4980000"}, records[1])
	assert.Equal(t, []string{"iPhone 15 Pro", "1", "28990000"}, records[2])

	w = get("?format=xml")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
