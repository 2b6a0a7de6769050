// Package analyze counts public page views per day in Redis.
package analyze

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "folio:analyze:"
	retention = 90 * 24 * time.Hour

	// MaxDays bounds a summary request.
	MaxDays = 90
)

// Visit is one recorded page view.
type Visit struct {
	Path    string
	Visitor string
	At      time.Time
}

type Recorder interface {
	Record(ctx context.Context, v Visit) error
}

// DayStats aggregates one calendar day.
type DayStats struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Visitors int64  `json:"visitors"`
}

type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

type Summary struct {
	Days     []DayStats  `json:"days"`
	Views    int64       `json:"views"`
	TopPaths []PathCount `json:"top_paths"`
}

// VisitorID hashes the client identity per day so raw IPs are never stored.
func VisitorID(ip, ua string, day time.Time) string {
	sum := sha256.Sum256([]byte(day.Format(time.DateOnly) + "|" + ip + "|" + ua))
	return hex.EncodeToString(sum[:12])
}

// RedisStore keeps a path hash and a HyperLogLog of visitors per day.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func viewsKey(day string) string    { return keyPrefix + "views:" + day }
func visitorsKey(day string) string { return keyPrefix + "visitors:" + day }

func (s *RedisStore) Record(ctx context.Context, v Visit) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	day := v.At.Format(time.DateOnly)
	pipe := s.rdb.TxPipeline()
	pipe.HIncrBy(ctx, viewsKey(day), v.Path, 1)
	pipe.PFAdd(ctx, visitorsKey(day), v.Visitor)
	pipe.Expire(ctx, viewsKey(day), retention)
	pipe.Expire(ctx, visitorsKey(day), retention)
	_, err := pipe.Exec(ctx)
	return err
}

// Summary reads the last days ending at now, oldest first.
func (s *RedisStore) Summary(ctx context.Context, days int, now time.Time, top int) (*Summary, error) {
	if days < 1 {
		days = 1
	}
	if days > MaxDays {
		days = MaxDays
	}

	out := &Summary{Days: make([]DayStats, 0, days)}
	paths := map[string]int64{}
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(time.DateOnly)
		views, err := s.rdb.HGetAll(ctx, viewsKey(day)).Result()
		if err != nil {
			return nil, fmt.Errorf("read views %s: %w", day, err)
		}
		visitors, err := s.rdb.PFCount(ctx, visitorsKey(day)).Result()
		if err != nil {
			return nil, fmt.Errorf("read visitors %s: %w", day, err)
		}
		stat := DayStats{Date: day, Visitors: visitors}
		for path, raw := range views {
			n, _ := strconv.ParseInt(raw, 10, 64)
			stat.Views += n
			paths[path] += n
		}
		out.Views += stat.Views
		out.Days = append(out.Days, stat)
	}
	out.TopPaths = topPaths(paths, top)
	return out, nil
}

func topPaths(counts map[string]int64, limit int) []PathCount {
	out := make([]PathCount, 0, len(counts))
	for path, n := range counts {
		out = append(out, PathCount{Path: path, Views: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Views != out[j].Views {
			return out[i].Views > out[j].Views
		}
		return out[i].Path < out[j].Path
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
