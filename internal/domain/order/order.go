// Package order holds the order document stored in the orders index.
package order

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/ordex/internal/domain"
)

// MaxItems is the maximum number of line items per order.
const MaxItems = 500

// Status is the lifecycle state of an order.
type Status string

// Order statuses.
const (
	StatusNew       Status = "new"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Customer identifies who placed the order.
type Customer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Item is one order line.
type Item struct {
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is the stored order document.
type Order struct {
	Status    Status    `json:"status"`
	Currency  string    `json:"currency,omitempty"`
	Total     float64   `json:"total"`
	Note      string    `json:"note,omitempty"`
	Customer  Customer  `json:"customer"`
	Items     []Item    `json:"items,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is an order together with its store identity. The identity is
// rendered as an "id" field next to the order's own fields.
type Record struct {
	ID string `json:"id"`
	Order
}

// Validate checks a create payload.
func (o *Order) Validate() error {
	if o.Status != "" && !o.Status.Valid() {
		return domain.InvalidInputf("unknown order status %q", o.Status)
	}
	if email := strings.TrimSpace(o.Customer.Email); email == "" || !strings.Contains(email, "@") {
		return domain.InvalidInputf("customer email is required")
	}
	if len(o.Items) > MaxItems {
		return domain.InvalidInputf("too many items (max %d)", MaxItems)
	}
	for i, it := range o.Items {
		if strings.TrimSpace(it.SKU) == "" {
			return domain.InvalidInputf("item %d: sku is required", i)
		}
		if it.Quantity <= 0 {
			return domain.InvalidInputf("item %d: quantity must be positive", i)
		}
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			return domain.InvalidInputf("item %d: invalid price", i)
		}
	}
	if o.Total < 0 || math.IsNaN(o.Total) || math.IsInf(o.Total, 0) {
		return domain.InvalidInputf("invalid total %v", o.Total)
	}
	return nil
}

// Prepare fills defaults for a new order: status new, total from items when
// unset, and both timestamps set to now.
func (o *Order) Prepare(now time.Time) {
	if o.Status == "" {
		o.Status = StatusNew
	}
	if o.Total == 0 {
		o.Total = o.ItemsTotal()
	}
	o.Customer.Email = strings.TrimSpace(o.Customer.Email)
	o.CreatedAt = now.UTC()
	o.UpdatedAt = o.CreatedAt
}

// ItemsTotal sums quantity times price over all items, rounded to cents.
func (o *Order) ItemsTotal() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += float64(it.Quantity) * it.Price
	}
	return math.Round(sum*100) / 100
}

// String returns a short debug form.
func (o *Order) String() string {
	return fmt.Sprintf("order{%s %s %.2f}", o.Status, o.Customer.Email, o.Total)
}
