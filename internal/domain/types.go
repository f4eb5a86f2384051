// Package domain holds the wire-level types shared between the storefront
// client and the backend. JSON field names follow the backend's camelCase
// contract. Money fields are decimals the client displays but never
// recomputes; the backend owns all pricing arithmetic.
package domain

import "github.com/shopspring/decimal"

// Item is a catalog entry. IDs are server-assigned and stable.
type Item struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CartItem is an Item plus its in-cart quantity. TotalPrice is computed by
// the backend (price × quantity, subject to whatever rules it applies).
type CartItem struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Discount is a backend-issued coupon. The client never validates codes.
type Discount struct {
	Code       string `json:"code"`
	Percentage int    `json:"percentage"`
}

// Cart is the authoritative aggregate returned by every cart mutation.
// At most one discount code is active at a time. GrandTotal is always
// Total − DiscountAmount as computed by the backend.
type Cart struct {
	UserID                 int64           `json:"userId"`
	Items                  []CartItem      `json:"items"`
	Total                  decimal.Decimal `json:"total"`
	AvailableDiscountCodes []Discount      `json:"availableDiscountCodes,omitempty"`
	DiscountCodeUsed       string          `json:"discountCodeUsed,omitempty"`
	DiscountAmount         decimal.Decimal `json:"discountAmount"`
	GrandTotal             decimal.Decimal `json:"grandTotal"`
}

// Item returns the cart line for the given item id, or nil.
func (c *Cart) Item(itemID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// Empty reports whether the cart has no line items.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// User is the authenticated identity returned by login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
}

// Order is the immutable record of a placed cart.
type Order struct {
	OrderID          string          `json:"orderId"`
	UserID           int64           `json:"userId"`
	Items            []CartItem      `json:"items"`
	Total            decimal.Decimal `json:"total"`
	DiscountCodeUsed string          `json:"discountCodeUsed,omitempty"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	GrandTotal       decimal.Decimal `json:"grandTotal"`
}

// Insights is the admin dashboard aggregate.
type Insights struct {
	TotalOrders            int             `json:"totalOrders"`
	TotalRevenue           decimal.Decimal `json:"totalRevenue"`
	TotalCarts             int             `json:"totalCarts"`
	TotalItems             int             `json:"totalItems"`
	AverageOrderValue      decimal.Decimal `json:"averageOrderValue"`
	AverageItemsPerCart    decimal.Decimal `json:"averageItemsPerCart"`
	TotalDiscountAmount    decimal.Decimal `json:"totalDiscountAmount"`
	TotalDiscountCodesUsed int             `json:"totalDiscountCodesUsed"`
	TotalDiscountCodes     int             `json:"totalDiscountCodes"`
	DiscountCodes          []Discount      `json:"discountCodes"`
}
