package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// order_status:{order_id} -> JSON order.Summary
const keyOrderStatus = "order_status:%s"

const defaultStatusTTL = 5 * time.Minute

// MustNewClient connects to redis.addr and pings it.
func MustNewClient() *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}

// OrderStatusCache caches order summaries keyed by order id.
type OrderStatusCache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewOrderStatusCache(client goredis.Cmdable) *OrderStatusCache {
	ttl := time.Duration(viper.GetInt("redis.status_ttl_seconds")) * time.Second
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}

	return &OrderStatusCache{client: client, ttl: ttl}
}

func (c *OrderStatusCache) Get(ctx context.Context, orderID uuid.UUID) (order.Summary, bool, error) {
	raw, err := c.client.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return order.Summary{}, false, nil
	}
	if err != nil {
		return order.Summary{}, false, fmt.Errorf("failed to read order status: %w", err)
	}

	var s order.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return order.Summary{}, false, fmt.Errorf("failed to decode order status: %w", err)
	}

	return s, true, nil
}

func (c *OrderStatusCache) Set(ctx context.Context, s order.Summary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode order status: %w", err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf(keyOrderStatus, s.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write order status: %w", err)
	}

	return nil
}

func (c *OrderStatusCache) Invalidate(ctx context.Context, orderID uuid.UUID) error {
	if err := c.client.Del(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate order status: %w", err)
	}
	return nil
}

// Ping reports whether redis answers.
func (c *OrderStatusCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
