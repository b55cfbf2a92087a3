package cart

import "strings"

// LineItem is one product position in the cart. Quantity always stays
// within [1, maxQuantity] once the item is in the cart.
type LineItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (c CustomerInfo) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	if strings.TrimSpace(c.Email) == "" {
		return &ValidationError{Field: "email"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return &ValidationError{Field: "phone"}
	}
	return nil
}

func snapshot(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
