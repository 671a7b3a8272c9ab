package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/pkg/database"
)

const contactTTL = 5 * time.Minute

// ContactCache is a cache-aside layer over contact reads. Read failures
// are indistinguishable from misses so Redis outages fall through to the
// database.
type ContactCache struct {
	redis *database.Redis
}

// NewContactCache creates a new contact cache
func NewContactCache(redis *database.Redis) *ContactCache {
	return &ContactCache{redis: redis}
}

func contactKey(id string) string {
	return fmt.Sprintf("contact:%s", id)
}

// Get returns the cached contact, or nil on miss or cache error
func (c *ContactCache) Get(ctx context.Context, id string) *domain.Contact {
	data, err := c.redis.Client.Get(ctx, contactKey(id)).Bytes()
	if err != nil {
		// misses and cache errors both fall through to the source of truth
		return nil
	}

	var contact domain.Contact
	if err := json.Unmarshal(data, &contact); err != nil {
		return nil
	}
	return &contact
}

// Set caches a contact. Failures are ignored.
func (c *ContactCache) Set(ctx context.Context, contact *domain.Contact) {
	data, err := json.Marshal(contact)
	if err != nil {
		return
	}
	_ = c.redis.Client.Set(ctx, contactKey(contact.ID), data, contactTTL).Err()
}

// Invalidate drops the cached entry for a contact
func (c *ContactCache) Invalidate(ctx context.Context, id string) {
	_ = c.redis.Client.Del(ctx, contactKey(id)).Err()
}
