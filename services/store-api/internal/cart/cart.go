// Package cart is the storefront basket: lines keyed by product id and
// variant, with quantity arithmetic and totals.
package cart

import (
	"github.com/shopspring/decimal"

	"superfoods-store/shared/pkg/money"
)

type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	ImageURL string          `json:"image_url"`
	Dose     string          `json:"dose,omitempty"`
	Variant  string          `json:"variant,omitempty"`
}

type Cart struct {
	Items []Item `json:"items"`
}

func (c *Cart) find(id, variant string) int {
	for i, it := range c.Items {
		if it.ID == id && it.Variant == variant {
			return i
		}
	}
	return -1
}

// Add merges into an existing line with the same id and variant. A quantity
// of zero or less counts as one.
func (c *Cart) Add(it Item) {
	if it.Quantity <= 0 {
		it.Quantity = 1
	}
	if i := c.find(it.ID, it.Variant); i >= 0 {
		c.Items[i].Quantity += it.Quantity
		return
	}
	c.Items = append(c.Items, it)
}

// Quantity returns the line quantity, or zero when there is no such line.
func (c Cart) Quantity(id, variant string) int {
	if i := c.find(id, variant); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

func (c *Cart) Remove(id, variant string) {
	if i := c.find(id, variant); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// UpdateQuantity sets the line quantity; zero or less removes the line.
// It reports whether the line existed.
func (c *Cart) UpdateQuantity(id, variant string, quantity int) bool {
	i := c.find(id, variant)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Remove(id, variant)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

func (c *Cart) Clear() {
	c.Items = []Item{}
}

func (c Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(money.LineTotal(it.Price, it.Quantity))
	}
	return total
}

// Summary is the checkout view of a cart.
type Summary struct {
	Items         []Item          `json:"items"`
	TotalItems    int             `json:"totalItems"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	Total         decimal.Decimal `json:"total"`
}

func (c Cart) Summary() Summary {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	subtotal := c.TotalPrice()
	shipping := decimal.Zero
	if len(items) > 0 {
		shipping = money.Shipping(subtotal)
	}
	return Summary{
		Items:         items,
		TotalItems:    c.TotalItems(),
		TotalPrice:    subtotal,
		ShippingPrice: shipping,
		Total:         subtotal.Add(shipping),
	}
}
