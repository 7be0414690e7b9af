package order

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status values are the Vietnamese labels the storefront displays and stores.
type Status string

const (
	StatusPending    Status = "Chờ xác nhận"
	StatusProcessing Status = "Đang xử lý"
	StatusShipped    Status = "Đang giao hàng"
	StatusCompleted  Status = "Hoàn thành"
	StatusCancelled  Status = "Đã hủy"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled}

var statusNames = map[Status]string{
	StatusPending:    "Pending",
	StatusProcessing: "Processing",
	StatusShipped:    "Shipped",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusCompleted},
}

// ParseStatus accepts a stored label or an English name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) || strings.EqualFold(s, statusNames[st]) {
			return st, nil
		}
	}
	if strings.EqualFold(s, "canceled") {
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Name is the English name, e.g. "Shipped".
func (s Status) Name() string { return statusNames[s] }

// AllowedNext lists the statuses an order in s may move to. Terminal statuses return nil.
func (s Status) AllowedNext() []Status {
	return append([]Status(nil), transitions[s]...)
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
