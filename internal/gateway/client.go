// Package gateway is the adapter for the order-management backend. It
// exposes typed lookups and cart mutations over the backend's REST API
// and optionally caches read-mostly product data in Redis.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pizzatalk/internal/common/errors"
	httpc "pizzatalk/internal/common/http"
	"pizzatalk/internal/common/logger"
	"pizzatalk/internal/common/metrics"
)

// Operation names used in error reporting and metrics labels.
const (
	OpLoadProduct    = "load_product"
	OpLoadMenu       = "load_menu"
	OpLoadCart       = "load_cart"
	OpLoadCartItems  = "load_cart_items"
	OpLoadCartItem   = "load_cart_item"
	OpCreateCartItem = "create_cart_item"
	OpUpdateCartItem = "update_cart_item"
	OpDeleteCartItem = "delete_cart_item"
)

// Client talks to the order backend.
type Client struct {
	baseURL string
	storeID int
	http    *httpc.Client
	cache   *Cache
	logger  logger.Logger
}

// NewClient builds a backend client. cache may be nil when Redis is
// disabled.
func NewClient(baseURL string, storeID int, timeout time.Duration, cache *Cache, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		storeID: storeID,
		http:    httpc.NewClient(timeout),
		cache:   cache,
		logger:  log,
	}
}

// StoreID is the store whose stock records price the menu.
func (c *Client) StoreID() int { return c.storeID }

// ProductByName looks up the product for a catalog pizza name at the
// given size. The backend stores names as "Pizza <name>", so the
// catalog form is re-prefixed before querying.
func (c *Client) ProductByName(ctx context.Context, name, size string) (*Product, error) {
	if c.cache != nil {
		if p, ok := c.cache.getProduct(ctx, name, size); ok {
			return p, nil
		}
	}

	q := url.Values{}
	q.Set("name.contains", "pizza "+name)
	if size != "" {
		q.Set("size.equals", strings.ToUpper(size))
	}

	var products []Product
	if err := c.get(ctx, OpLoadProduct, "/api/products?"+q.Encode(), &products); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, &errors.BackendError{
			Code:      errors.ErrCodeBackendNotFound,
			Operation: OpLoadProduct,
			Status:    http.StatusOK,
		}
	}

	p := &products[0]
	if c.cache != nil {
		c.cache.putProduct(ctx, name, size, p)
	}
	return p, nil
}

// Menu returns the size-less listing entries for every pizza.
func (c *Client) Menu(ctx context.Context) ([]Product, error) {
	if c.cache != nil {
		if menu, ok := c.cache.getMenu(ctx); ok {
			return menu, nil
		}
	}

	var products []Product
	if err := c.get(ctx, OpLoadMenu, "/api/products", &products); err != nil {
		return nil, err
	}

	menu := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Size == "" {
			menu = append(menu, p)
		}
	}

	if c.cache != nil {
		c.cache.putMenu(ctx, menu)
	}
	return menu, nil
}

// ActiveCart returns the user's cart with status ACTIVE.
func (c *Client) ActiveCart(ctx context.Context, userID int) (*Cart, error) {
	q := url.Values{}
	q.Set("userId.equals", strconv.Itoa(userID))
	q.Set("status.equals", "ACTIVE")

	var carts []Cart
	if err := c.get(ctx, OpLoadCart, "/api/carts?"+q.Encode(), &carts); err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, &errors.BackendError{
			Code:      errors.ErrCodeBackendNotFound,
			Operation: OpLoadCart,
			Status:    http.StatusOK,
		}
	}
	return &carts[0], nil
}

// CartItems returns every line of the cart. An empty cart yields an
// empty slice, not an error.
func (c *Client) CartItems(ctx context.Context, cartID int) ([]CartItem, error) {
	var items []CartItem
	err := c.get(ctx, OpLoadCartItems, "/api/cart-items/all?cartId.equals="+strconv.Itoa(cartID), &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CartItem returns a single cart line by id.
func (c *Client) CartItem(ctx context.Context, id int) (*CartItem, error) {
	var item CartItem
	if err := c.get(ctx, OpLoadCartItem, "/api/cart-items/"+strconv.Itoa(id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCartItem posts a new cart line. The backend answers 201.
func (c *Client) CreateCartItem(ctx context.Context, req CartItemRequest) error {
	return c.write(ctx, OpCreateCartItem, http.MethodPost, "/api/cart-items", &req, http.StatusCreated)
}

// UpdateCartItem replaces a cart line. The backend answers 204.
func (c *Client) UpdateCartItem(ctx context.Context, id int, req CartItemRequest) error {
	return c.write(ctx, OpUpdateCartItem, http.MethodPut, "/api/cart-items/"+strconv.Itoa(id), &req, http.StatusNoContent)
}

// DeleteCartItem removes a cart line. The backend answers 204.
func (c *Client) DeleteCartItem(ctx context.Context, id int) error {
	return c.write(ctx, OpDeleteCartItem, http.MethodDelete, "/api/cart-items/"+strconv.Itoa(id), nil, http.StatusNoContent)
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.WrapBackendError(op, err)
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return errors.WrapBackendError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logStatus(op, resp)
		return errors.NewBackendError(op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errors.BackendError{Code: errors.ErrCodeBackendDecodeFailed, Operation: op, Err: err}
	}
	return nil
}

func (c *Client) write(ctx context.Context, op, method, path string, body interface{}, wantStatus int) error {
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WrapBackendError(op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return errors.WrapBackendError(op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return errors.WrapBackendError(op, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != wantStatus {
		c.logStatus(op, resp)
		return errors.NewBackendError(op, resp.StatusCode)
	}
	return nil
}

func (c *Client) logStatus(op string, resp *http.Response) {
	c.logger.Warn("backend returned unexpected status", map[string]interface{}{
		"operation": op,
		"status":    resp.StatusCode,
		"url":       fmt.Sprintf("%v", resp.Request.URL),
	})
}
