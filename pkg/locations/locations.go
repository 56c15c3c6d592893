// Package locations caches each driver's last reported position per
// event. Positions feed queue ordering only; nothing here is a trust
// decision.
package locations

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Source interface {
	Set(ctx context.Context, userID, eventID int64, lat, lng float64) error
	// Get returns the driver's last known position. ok is false when
	// the driver has never reported or the entry expired.
	Get(ctx context.Context, userID, eventID int64) (lat, lng float64, ok bool, err error)
}

const locationTTL = 30 * time.Minute

// RedisSource stores positions in Redis with a TTL so stale locations
// age out between events.
type RedisSource struct {
	rdb *goredis.Client
}

func NewRedisSource(addr, password string) (*RedisSource, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return &RedisSource{rdb: rdb}, nil
}

func key(userID, eventID int64) string {
	return fmt.Sprintf("driver:loc:%d:%d", eventID, userID)
}

func (s *RedisSource) Set(ctx context.Context, userID, eventID int64, lat, lng float64) error {
	val := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
	return s.rdb.Set(ctx, key(userID, eventID), val, locationTTL).Err()
}

func (s *RedisSource) Get(ctx context.Context, userID, eventID int64) (float64, float64, bool, error) {
	val, err := s.rdb.Get(ctx, key(userID, eventID)).Result()
	if err == goredis.Nil {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	parts := strings.SplitN(val, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false, nil
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lng, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false, nil
	}
	return lat, lng, true, nil
}

// MemSource is an in-process Source for tests.
type MemSource struct {
	mu   sync.RWMutex
	locs map[string][2]float64
}

func NewMemSource() *MemSource {
	return &MemSource{locs: make(map[string][2]float64)}
}

func (s *MemSource) Set(ctx context.Context, userID, eventID int64, lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locs[key(userID, eventID)] = [2]float64{lat, lng}
	return nil
}

func (s *MemSource) Get(ctx context.Context, userID, eventID int64) (float64, float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locs[key(userID, eventID)]
	if !ok {
		return 0, 0, false, nil
	}
	return loc[0], loc[1], true, nil
}
