package integration

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wighaven/smartcache/pkg/broadcast"
	"github.com/wighaven/smartcache/pkg/cache"
	"github.com/wighaven/smartcache/pkg/invalidate"
	"github.com/wighaven/smartcache/pkg/keys"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available for integration tests: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func TestRedisPublisher_RoundTrip(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	sub := redisClient.Subscribe(ctx, broadcast.DefaultChannel)
	defer sub.Close()

	// Wait for the subscription to be established before publishing.
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	publisher := broadcast.NewRedisPublisher(redisClient, "")
	publisher.Notify(ctx, broadcast.Event{
		Type:     "products",
		Metadata: map[string]any{"id": "42", "action": "updated"},
		At:       time.Now().UTC(),
	})

	select {
	case msg := <-sub.Channel():
		var event broadcast.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if event.Type != "products" {
			t.Errorf("event type = %q, want products", event.Type)
		}
		if event.Metadata["id"] != "42" {
			t.Errorf("metadata id = %v, want 42", event.Metadata["id"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event received on the invalidation channel")
	}
}

func TestCoordinator_PublishesOnInvalidate(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	sub := redisClient.Subscribe(ctx, broadcast.DefaultChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	store := cache.New(cache.DefaultConfig())
	if err := store.Store().Set(keys.Settings(), "doc", time.Minute); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	publisher := broadcast.NewRedisPublisher(redisClient, "")
	coordinator := invalidate.New(store, invalidate.DefaultRules(), publisher.Notify)

	coordinator.Invalidate(ctx, invalidate.EntitySettings, invalidate.Metadata{"action": "updated"})

	// The local purge happened and the event reached the wire.
	if _, found, _ := store.Store().Get(keys.Settings()); found {
		t.Error("settings key should have been purged")
	}

	select {
	case msg := <-sub.Channel():
		var event broadcast.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if event.Type != "settings" {
			t.Errorf("event type = %q, want settings", event.Type)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event received after coordinator invalidation")
	}
}
