package orders

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"akstore/internal/domain/order"
	"akstore/internal/domain/settings"
)

// Store contact lines printed on every invoice.
const (
	StoreName    = "AkStore"
	StoreAddress = "Ấp Cầu Xéo, Xã Long Thành, Đồng Nai"
	StoreEmail   = "support@akstore.com"
	StorePhone   = "(081) 3121 270"
)

var invoiceZone = time.FixedZone("ICT", 7*60*60)

type InvoiceLine struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	Options       string `json:"options"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unitPrice"`
	LineTotal     int64  `json:"lineTotal"`
	UnitPriceText string `json:"unitPriceText"`
	LineTotalText string `json:"lineTotalText"`
}

// Invoice is everything the printable invoice shows, amounts pre-formatted in đồng.
type Invoice struct {
	Order              order.Order            `json:"order"`
	Store              settings.StoreSettings `json:"store"`
	StoreName          string                 `json:"storeName"`
	StoreAddress       string                 `json:"storeAddress"`
	StoreEmail         string                 `json:"storeEmail"`
	StorePhone         string                 `json:"storePhone"`
	OrderDateText      string                 `json:"orderDateText"`
	StatusName         string                 `json:"statusName"`
	Lines              []InvoiceLine          `json:"lines"`
	Subtotal           int64                  `json:"subtotal"`
	Shipping           string                 `json:"shipping"`
	Total              int64                  `json:"total"`
	SubtotalText       string                 `json:"subtotalText"`
	TotalText          string                 `json:"totalText"`
	PaymentMethodLabel string                 `json:"paymentMethodLabel"`
}

func (e *Engine) Invoice(ctx context.Context, id string) (Invoice, error) {
	o, err := e.GetOrderWithItems(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	var store settings.StoreSettings
	if e.settings != nil {
		if store, err = e.settings.Get(ctx); err != nil {
			return Invoice{}, err
		}
	}
	return BuildInvoice(o, store), nil
}

// BuildInvoice uses the line item snapshots only, so it prints the same
// invoice no matter what happened to the catalog since.
func BuildInvoice(o order.Order, store settings.StoreSettings) Invoice {
	inv := Invoice{
		Order:              o,
		Store:              store,
		StoreName:          StoreName,
		StoreAddress:       StoreAddress,
		StoreEmail:         StoreEmail,
		StorePhone:         StorePhone,
		OrderDateText:      o.OrderDate.Time().In(invoiceZone).Format("2/1/2006"),
		StatusName:         o.Status.Name(),
		Lines:              make([]InvoiceLine, 0, len(o.Items)),
		Shipping:           "Miễn phí",
		Total:              o.Total,
		PaymentMethodLabel: o.PaymentMethod.Label(),
	}
	for _, li := range o.Items {
		line := InvoiceLine{
			ProductID: li.ProductID,
			Name:      li.Product.Product.Name,
			Options:   optionsText(li.Product.SelectedOptions),
			Quantity:  li.Quantity,
			UnitPrice: li.Price,
			LineTotal: li.LineTotal(),
		}
		line.UnitPriceText = FormatVND(line.UnitPrice)
		line.LineTotalText = FormatVND(line.LineTotal)
		inv.Subtotal += line.LineTotal
		inv.Lines = append(inv.Lines, line)
	}
	inv.SubtotalText = FormatVND(inv.Subtotal)
	inv.TotalText = FormatVND(inv.Total)
	return inv
}

// FormatVND renders an amount the way vi-VN does, e.g. 60.470.000₫.
func FormatVND(amount int64) string {
	return message.NewPrinter(language.Vietnamese).Sprintf("%d", amount) + "₫"
}

func optionsText(opts map[string]string) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+opts[k])
	}
	return strings.Join(parts, ", ")
}
