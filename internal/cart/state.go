// Package cart holds the cart state, its pure reducer and the persisted
// Store every cart view reads from.
package cart

import (
	"github.com/shopspring/decimal"
)

// Product is the catalog snapshot taken when an item is first added.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageRef string          `json:"imageRef"`
}

// LineItem is one product entry in the cart. Only Quantity changes after
// the line is created.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef"`
}

// Subtotal is Quantity × UnitPrice.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is an immutable cart value. TotalItems and TotalPrice are always
// the reduction of Items; build values through Empty or derive.
type State struct {
	Items      []LineItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func Empty() State {
	return State{Items: []LineItem{}, TotalPrice: decimal.Zero}
}

// IsEmpty reports whether the cart holds no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the line for productID.
func (s State) Find(productID string) (LineItem, bool) {
	if i := s.indexOf(productID); i >= 0 {
		return s.Items[i], true
	}
	return LineItem{}, false
}

func (s State) indexOf(productID string) int {
	for i, item := range s.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers cannot alias the store's items.
func (s State) Clone() State {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, TotalItems: s.TotalItems, TotalPrice: s.TotalPrice}
}

// derive recomputes both totals from scratch over items.
func derive(items []LineItem) State {
	if items == nil {
		items = []LineItem{}
	}
	totalItems := 0
	totalPrice := decimal.Zero
	for _, item := range items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.Subtotal())
	}
	return State{Items: items, TotalItems: totalItems, TotalPrice: totalPrice}
}

// sanitize drops lines a restored snapshot should never have carried.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	seen := make(map[string]int, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			continue
		}
		if i, dup := seen[item.ProductID]; dup {
			out[i].Quantity += item.Quantity
			continue
		}
		seen[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}
