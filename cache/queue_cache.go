// Package cache is a read-through cache for the per-department daily queue
// plus a pub/sub channel carrying live queue events. Both are no-ops when no
// redis client is configured — the cache is a latency optimization, never a
// correctness requirement.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-queue-api/models"

	"github.com/redis/go-redis/v9"
)

const queueTTL = 5 * time.Minute

var client *redis.Client

// Init wires the shared redis client; a nil client disables the cache
func Init(c *redis.Client) {
	client = c
}

func queueKey(departmentID uint, date string) string {
	return fmt.Sprintf("queue:%d:%s", departmentID, date)
}

// GetQueue returns the cached board for (department, date), if present
func GetQueue(ctx context.Context, departmentID uint, date string) ([]models.Appointment, bool) {
	if client == nil {
		return nil, false
	}
	raw, err := client.Get(ctx, queueKey(departmentID, date)).Result()
	if err != nil {
		return nil, false
	}
	var queue []models.Appointment
	if err := json.Unmarshal([]byte(raw), &queue); err != nil {
		return nil, false
	}
	return queue, true
}

// SetQueue stores the board with a short expiry
func SetQueue(ctx context.Context, departmentID uint, date string, queue []models.Appointment) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(queue)
	if err != nil {
		return
	}
	client.Set(ctx, queueKey(departmentID, date), raw, queueTTL)
}

// Invalidate drops the cached board; called on every queue mutation
func Invalidate(ctx context.Context, departmentID uint, date string) {
	if client == nil {
		return
	}
	client.Del(ctx, queueKey(departmentID, date))
}

// PublishEvent pushes a live update onto the department's channel so
// subscribed boards can refresh without polling
func PublishEvent(ctx context.Context, departmentID uint, event string, appointment *models.Appointment) {
	if client == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event":       event,
		"appointment": appointment,
	})
	if err != nil {
		return
	}
	client.Publish(ctx, fmt.Sprintf("queue:%d", departmentID), payload)
}
