package realtime

import (
	"context"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	presencePrefix = "presence:"

	// presenceTTL outlives the ping period so a live connection keeps the
	// key refreshed on every pong
	presenceTTL = 90 * time.Second

	presenceTimeout = 2 * time.Second
)

// Presence tracks which users have a live realtime connection, backed by
// Redis keys with a TTL. A nil receiver or absent Redis degrades to
// "everyone offline" without errors, so the app runs fine without Redis.
type Presence struct {
	rdb *redis.Client
}

// NewPresence wraps rdb; rdb may be nil
func NewPresence(rdb *redis.Client) *Presence {
	if rdb == nil {
		return nil
	}
	return &Presence{rdb: rdb}
}

// MarkOnline records that username has at least one open connection
func (p *Presence) MarkOnline(username string) {
	if p == nil || p.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := p.rdb.Set(ctx, presencePrefix+username, "1", presenceTTL).Err(); err != nil {
		log.Printf("Warning: presence set for %s failed: %v", username, err)
	}
}

// Refresh extends the presence TTL, called on every pong
func (p *Presence) Refresh(username string) {
	if p == nil || p.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := p.rdb.Expire(ctx, presencePrefix+username, presenceTTL).Err(); err != nil {
		log.Printf("Warning: presence refresh for %s failed: %v", username, err)
	}
}

// MarkOffline clears presence once the user's last connection closed
func (p *Presence) MarkOffline(username string) {
	if p == nil || p.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := p.rdb.Del(ctx, presencePrefix+username).Err(); err != nil {
		log.Printf("Warning: presence clear for %s failed: %v", username, err)
	}
}

// IsOnline reports whether username currently has a live connection
func (p *Presence) IsOnline(username string) bool {
	if p == nil || p.rdb == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	n, err := p.rdb.Exists(ctx, presencePrefix+username).Result()
	if err != nil {
		log.Printf("Warning: presence check for %s failed: %v", username, err)
		return false
	}
	return n > 0
}

// Online returns the online flag for each given username
func (p *Presence) Online(usernames []string) map[string]bool {
	result := make(map[string]bool, len(usernames))
	for _, username := range usernames {
		result[username] = false
	}
	if p == nil || p.rdb == nil || len(usernames) == 0 {
		return result
	}

	keys := make([]string, len(usernames))
	for i, username := range usernames {
		keys[i] = presencePrefix + username
	}

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	values, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("Warning: presence lookup failed: %v", err)
		return result
	}
	for i, v := range values {
		result[usernames[i]] = v != nil
	}
	return result
}
