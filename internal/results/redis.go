package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kiliankoe/shadowheist/internal/game"
)

const (
	keyRecent   = "heist:results:recent"
	recentLimit = 100
)

func keyRoom(code string) string { return "heist:results:room:" + code }

// RedisArchive keeps finished games in Redis: a capped global list, newest first,
// plus one list per room code that expires after ttl.
type RedisArchive struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisArchive(rdb *redis.Client, ttl time.Duration) *RedisArchive {
	return &RedisArchive{rdb: rdb, ttl: ttl}
}

// DialRedisArchive parses a redis:// URL and pings the server before returning.
func DialRedisArchive(ctx context.Context, url string, ttl time.Duration) (*RedisArchive, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisArchive(rdb, ttl), nil
}

func (a *RedisArchive) Record(ctx context.Context, rec game.GameRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	pipe := a.rdb.TxPipeline()
	pipe.LPush(ctx, keyRecent, raw)
	pipe.LTrim(ctx, keyRecent, 0, recentLimit-1)
	pipe.RPush(ctx, keyRoom(rec.RoomID), raw)
	if a.ttl > 0 {
		pipe.Expire(ctx, keyRoom(rec.RoomID), a.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("archive game %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to n archived games, newest first.
func (a *RedisArchive) Recent(ctx context.Context, n int) ([]game.GameRecord, error) {
	if n <= 0 || n > recentLimit {
		n = recentLimit
	}
	raws, err := a.rdb.LRange(ctx, keyRecent, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent games: %w", err)
	}
	return decode(raws)
}

// ForRoom returns every archived game played in the room, oldest first.
func (a *RedisArchive) ForRoom(ctx context.Context, code string) ([]game.GameRecord, error) {
	raws, err := a.rdb.LRange(ctx, keyRoom(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read room %s games: %w", code, err)
	}
	return decode(raws)
}

func (a *RedisArchive) Close() error { return a.rdb.Close() }

func decode(raws []string) ([]game.GameRecord, error) {
	out := make([]game.GameRecord, 0, len(raws))
	for _, raw := range raws {
		var rec game.GameRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
