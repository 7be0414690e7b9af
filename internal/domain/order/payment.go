package order

import (
	"fmt"
	"strings"
)

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMomo         PaymentMethod = "Momo"
)

var paymentLabels = map[PaymentMethod]string{
	PaymentCOD:          "Thanh toán khi nhận hàng (COD)",
	PaymentBankTransfer: "Chuyển khoản ngân hàng",
	PaymentMomo:         "Ví điện tử Momo",
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.TrimSpace(s)
	for pm := range paymentLabels {
		if strings.EqualFold(s, string(pm)) {
			return pm, nil
		}
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Label is the invoice wording for the payment method.
func (p PaymentMethod) Label() string {
	if l, ok := paymentLabels[p]; ok {
		return l
	}
	return string(p)
}
