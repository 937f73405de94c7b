// Package cache holds the Redis-backed projection cache for the public
// tracking endpoint, the one read path hot enough to warrant one.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pln-care/complaint-service/internal/events"
)

// ErrMiss signals a cache miss.
var ErrMiss = errors.New("cache miss")

// TrackingCache stores rendered public tracking projections keyed by ticket
// number. Values are opaque marshaled bytes; the handler owns the shape.
type TrackingCache interface {
	Get(ctx context.Context, ticketNumber string) ([]byte, error)
	Set(ctx context.Context, ticketNumber string, payload []byte) error
	Invalidate(ctx context.Context, ticketNumber string) error
}

type redisTrackingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTrackingCache builds a Redis-backed tracking cache.
func NewTrackingCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) TrackingCache {
	return &redisTrackingCache{client: client, ttl: ttl, logger: logger}
}

func trackingKey(ticketNumber string) string {
	return "tracking:" + ticketNumber
}

func (c *redisTrackingCache) Get(ctx context.Context, ticketNumber string) ([]byte, error) {
	payload, err := c.client.Get(ctx, trackingKey(ticketNumber)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return payload, nil
}

func (c *redisTrackingCache) Set(ctx context.Context, ticketNumber string, payload []byte) error {
	return c.client.Set(ctx, trackingKey(ticketNumber), payload, c.ttl).Err()
}

func (c *redisTrackingCache) Invalidate(ctx context.Context, ticketNumber string) error {
	return c.client.Del(ctx, trackingKey(ticketNumber)).Err()
}

// RegisterInvalidation subscribes cache invalidation to every event that can
// change a ticket's public projection.
func RegisterInvalidation(dispatcher events.Dispatcher, cache TrackingCache, logger *zap.Logger) {
	if dispatcher == nil || cache == nil {
		return
	}
	invalidate := func(ctx context.Context, event events.Event) error {
		if event.TicketNumber == "" {
			return nil
		}
		if err := cache.Invalidate(ctx, event.TicketNumber); err != nil {
			logger.Warn("tracking cache invalidation failed",
				zap.String("ticket_number", event.TicketNumber),
				zap.Error(err))
		}
		return nil
	}
	dispatcher.Subscribe(events.EventComplaintStatusChanged, invalidate)
	dispatcher.Subscribe(events.EventComplaintAssigned, invalidate)
	dispatcher.Subscribe(events.EventComplaintDeleted, invalidate)
	dispatcher.Subscribe(events.EventWorkReportSubmitted, invalidate)
	dispatcher.Subscribe(events.EventWorkReportReviewed, invalidate)
}
