package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pizzatalk/internal/common/logger"
)

// Cache keeps product lookups in Redis so repeated menu questions do
// not hit the backend every turn. Misses and Redis failures both fall
// through to the backend; the cache is never load-bearing.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: log}
}

func productKey(name, size string) string {
	return fmt.Sprintf("pizzatalk:product:%s:%s", name, size)
}

const menuKey = "pizzatalk:menu"

func (c *Cache) getProduct(ctx context.Context, name, size string) (*Product, bool) {
	data, err := c.rdb.Get(ctx, productKey(name, size)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("product cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Cache) putProduct(ctx context.Context, name, size string, p *Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, productKey(name, size), data, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Cache) getMenu(ctx context.Context) ([]Product, bool) {
	data, err := c.rdb.Get(ctx, menuKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("menu cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var menu []Product
	if err := json.Unmarshal(data, &menu); err != nil {
		return nil, false
	}
	return menu, true
}

func (c *Cache) putMenu(ctx context.Context, menu []Product) {
	data, err := json.Marshal(menu)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, menuKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("menu cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
