package broadcast

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultChannel is the Redis pub/sub channel invalidation events are
// published on. Storefront replicas subscribe and drop their own local
// caches when an event arrives.
const DefaultChannel = "smartcache:invalidations"

// RedisPublisher publishes invalidation events on a Redis channel.
type RedisPublisher struct {
	redis   *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisPublisher creates a publisher on the given channel; an empty
// channel name falls back to DefaultChannel.
func NewRedisPublisher(redisClient *redis.Client, channel string) *RedisPublisher {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		redis:   redisClient,
		channel: channel,
		logger:  log.With().Str("component", "broadcast-redis").Logger(),
	}
}

// Notify publishes the event. Publish failures are logged, not
// returned: the local purge already happened, and a replica that missed
// the hint recovers on its own TTL.
func (p *RedisPublisher) Notify(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to encode event")
		return
	}

	if err := p.redis.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn().Err(err).Str("type", event.Type).Msg("Failed to publish invalidation event")
	}
}
