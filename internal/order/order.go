package order

import (
	"time"

	"MiniCart/internal/cart"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// Order is immutable after creation except for Status, which changes
// only through Repository.UpdateStatus. Items is a frozen copy of the
// cart lines that produced the order.
type Order struct {
	ID         string            `json:"id"`
	Items      []cart.LineItem   `json:"items"`
	TotalCents int64             `json:"total_cents"`
	Customer   cart.CustomerInfo `json:"customer"`
	CreatedAt  time.Time         `json:"created_at"`
	Status     Status            `json:"status"`
}
