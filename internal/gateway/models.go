package gateway

import "strings"

// Option ids the backend assigns to the two pizza option groups.
const (
	OptionIDCrust   = 1
	OptionIDTopping = 2
)

// Option detail ids of the two crust variants.
const (
	CrustThickID = 1
	CrustThinID  = 2
)

// StockItem is the per-store stock record attached to products and
// option details.
type StockItem struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	TotalQuantity int     `json:"totalQuantity"`
	SellingPrice  float64 `json:"sellingPrice"`
	StoreID       int     `json:"storeId"`
	ProductID     int     `json:"productId"`
}

// Option is a configurable product option group, crust or topping.
type Option struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// OptionDetail is one concrete choice within an option group.
type OptionDetail struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Size       string      `json:"size"`
	OptionID   int         `json:"optionId"`
	StockItems []StockItem `json:"stockItems"`
}

// Product is a sellable pizza at a specific size, or the size-less
// listing entry used for the menu.
type Product struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Size          string         `json:"size"`
	Description   string         `json:"description"`
	ImagePath     string         `json:"imagePath"`
	Options       []Option       `json:"options"`
	OptionDetails []OptionDetail `json:"optionDetails"`
	StockItems    []StockItem    `json:"stockItems"`
}

// Cart is a user's shopping cart.
type Cart struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Status string `json:"status"`
}

// CartItem is a line in the cart as the backend reports it.
type CartItem struct {
	ID            int            `json:"id"`
	Quantity      int            `json:"quantity"`
	Price         float64        `json:"price"`
	Product       Product        `json:"product"`
	OptionDetails []OptionDetail `json:"optionDetails"`
}

// CartItemRequest is the write payload for creating or updating a
// cart item.
type CartItemRequest struct {
	ID              int   `json:"id,omitempty"`
	Quantity        int   `json:"quantity"`
	CartID          int   `json:"cartId"`
	ProductID       int   `json:"productId"`
	OptionDetailIDs []int `json:"optionDetailIds"`
}

// CanonicalPizzaName lowers a backend product name and strips the
// "pizza " prefix, yielding the catalog form used for matching.
func CanonicalPizzaName(p Product) string {
	return strings.ReplaceAll(strings.ToLower(p.Name), "pizza ", "")
}

// CrustNames joins the crust option detail names of a cart item.
func (ci CartItem) CrustNames() []string {
	return ci.optionNames(OptionIDCrust)
}

// ToppingNames joins the topping option detail names of a cart item.
func (ci CartItem) ToppingNames() []string {
	return ci.optionNames(OptionIDTopping)
}

func (ci CartItem) optionNames(optionID int) []string {
	var names []string
	for _, od := range ci.OptionDetails {
		if od.OptionID == optionID {
			names = append(names, strings.ToLower(od.Name))
		}
	}
	return names
}
