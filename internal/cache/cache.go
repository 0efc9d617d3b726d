// Package cache keeps finished analyses keyed by transcript content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/extractor"
)

const keyPrefix = "lectern:analysis:"

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type RedisCache struct {
	client *redis.Client
}

type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memItem
}

type memItem struct {
	val []byte
	exp time.Time
}

// New connects to Redis and falls back to an in-process cache when the URL is
// empty, invalid, or unreachable.
func New(ctx context.Context, redisURL string, logger *slog.Logger) Cache {
	if redisURL == "" {
		return NewMemoryCache()
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using memory cache", "error", err)
		return NewMemoryCache()
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using memory cache", "error", err)
		_ = client.Close()
		return NewMemoryCache()
	}
	logger.Info("redis cache connected", "addr", opt.Addr)
	return &RedisCache{client: client}
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memItem)}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !it.exp.IsZero() && time.Now().After(it.exp) {
		delete(m.items, key)
		return nil, false
	}
	return it.val, true
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.items[key] = memItem{val: val, exp: exp}
	return nil
}

// ContentHash fingerprints everything that influences an analysis: the text,
// the segments, and the lesson name.
func ContentHash(text string, segments []extractor.Segment, lessonName string) string {
	payload, _ := json.Marshal(struct {
		Text       string              `json:"text"`
		Segments   []extractor.Segment `json:"segments"`
		LessonName string              `json:"lesson_name"`
	}{text, segments, lessonName})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Reports stores analysis reports in a Cache.
type Reports struct {
	cache Cache
	ttl   time.Duration
}

func NewReports(c Cache, ttl time.Duration) *Reports {
	return &Reports{cache: c, ttl: ttl}
}

var errNilReport = errors.New("nil report")

// Get returns the cached report for a content hash.
func (r *Reports) Get(ctx context.Context, hash string) (*analysis.Report, bool) {
	data, ok := r.cache.Get(ctx, keyPrefix+hash)
	if !ok {
		return nil, false
	}
	var rep analysis.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, false
	}
	return &rep, true
}

// Put caches a report under its content hash.
func (r *Reports) Put(ctx context.Context, hash string, rep *analysis.Report) error {
	if rep == nil {
		return errNilReport
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := r.cache.Set(ctx, keyPrefix+hash, data, r.ttl); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	return nil
}
