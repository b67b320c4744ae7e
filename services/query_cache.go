package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"betinsight-service/logger"
)

// CacheBackend 缓存存储后端
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// QueryCache 查询结果缓存, 由调用方持有并注入
type QueryCache struct {
	backend CacheBackend
	ttl     time.Duration
}

// NewQueryCache 创建查询缓存
func NewQueryCache(backend CacheBackend, ttl time.Duration) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
	}
}

// Put 写入缓存 (JSON 编码)
func (c *QueryCache) Put(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value %s: %w", key, err)
	}
	return c.backend.Set(ctx, key, data, c.ttl)
}

// Lookup 读取缓存并解码到 out
func (c *QueryCache) Lookup(ctx context.Context, key string, out interface{}) (bool, error) {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value %s: %w", key, err)
	}
	return true, nil
}

// Invalidate 删除缓存
func (c *QueryCache) Invalidate(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// Clear 清空缓存
func (c *QueryCache) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

// Size 获取缓存大小
func (c *QueryCache) Size(ctx context.Context) (int, error) {
	return c.backend.Size(ctx)
}

// FetchQuery 命中则返回缓存, 否则调用 load 并写入缓存. load 失败不缓存.
func FetchQuery[T any](ctx context.Context, c *QueryCache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	ok, err := c.Lookup(ctx, key, &cached)
	if err != nil {
		logger.Warnf("[QueryCache] lookup %s failed: %v", key, err)
	}
	if ok {
		logger.Debugf("[QueryCache] hit %s", key)
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := c.Put(ctx, key, value); err != nil {
		logger.Warnf("[QueryCache] store %s failed: %v", key, err)
	}
	return value, nil
}

// QueryKey 生成查询键, 如 QueryKey("prediction", 123) => "prediction:123"
func QueryKey(parts ...interface{}) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}

// GenerateCacheKey 根据结构化参数生成缓存键
func GenerateCacheKey(prefix string, params interface{}) string {
	jsonBytes, err := json.Marshal(params)
	if err != nil {
		// 序列化失败时使用时间戳作为键(不命中)
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}

	hash := sha256.Sum256(jsonBytes)
	return fmt.Sprintf("%s_%x", prefix, hash[:16])
}

// MemoryBackend 内存缓存后端
type MemoryBackend struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryBackend 创建内存缓存并启动清理协程
func NewMemoryBackend(sweepInterval time.Duration) *MemoryBackend {
	b := &MemoryBackend{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	if sweepInterval > 0 {
		go b.cleanupLoop(sweepInterval)
	}

	return b
}

// Get 获取缓存
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, exists := b.cache[key]
	if !exists || b.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.data, true, nil
}

// Set 设置缓存
func (b *MemoryBackend) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache[key] = &cacheEntry{
		data:      data,
		expiresAt: b.now().Add(ttl),
	}
	return nil
}

// Delete 删除缓存
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.cache, key)
	return nil
}

// Clear 清空缓存
func (b *MemoryBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache = make(map[string]*cacheEntry)
	return nil
}

// Size 获取缓存大小 (含未清理的过期条目)
func (b *MemoryBackend) Size(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.cache), nil
}

// Close 停止清理协程
func (b *MemoryBackend) Close() {
	b.once.Do(func() { close(b.stop) })
}

func (b *MemoryBackend) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.cleanup()
		case <-b.stop:
			return
		}
	}
}

// cleanup 清理过期缓存
func (b *MemoryBackend) cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for key, entry := range b.cache {
		if now.After(entry.expiresAt) {
			delete(b.cache, key)
		}
	}
}
