package decorator

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/vaultpass/servicekit/errors"
	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/registry"
)

// CacheMode classifies a method for the caching decorator. Classification is
// explicit per method; methods without a spec are never cached.
type CacheMode string

const (
	// ModeRead caches successful results under a key derived from the
	// arguments.
	ModeRead CacheMode = "read"
	// ModeWrite bypasses the cache and invalidates every cached entry of
	// the service on success.
	ModeWrite CacheMode = "write"
	// ModeNone passes calls through untouched.
	ModeNone CacheMode = "none"
)

// MethodSpec declares how one method interacts with the cache.
type MethodSpec struct {
	Mode CacheMode
	// TTL overrides the decorator's default TTL for this method.
	TTL time.Duration
}

// CachingOptions configures a Caching decorator.
type CachingOptions struct {
	Include []string
	Exclude []string
	// Methods is the explicit per-method cache table.
	Methods map[string]MethodSpec
	// DefaultTTL applies to read methods whose spec has no TTL.
	DefaultTTL time.Duration
	// MaxEntries bounds the cache; the least recently accessed entry is
	// evicted when full.
	MaxEntries int
}

func (o *CachingOptions) applyDefaults() {
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = 5 * time.Minute
	}
	if o.MaxEntries <= 0 {
		o.MaxEntries = 1000
	}
}

// CachingStats is a read-only snapshot of cache effectiveness.
type CachingStats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Evictions     int64   `json:"evictions"`
	Invalidations int64   `json:"invalidations"`
	Size          int     `json:"size"`
	HitRate       float64 `json:"hit_rate"`
	MemoryBytes   int64   `json:"memory_bytes"`
}

// cacheEntry is one cached result. Entries are owned by a single decorator
// and never shared.
type cacheEntry struct {
	key          string
	method       string
	value        any
	size         int
	createdAt    time.Time
	lastAccessed time.Time
	expiresAt    time.Time
}

// Caching adds TTL/LRU caching to a service's read methods and coarse
// service-wide invalidation to its write methods. Cache failures are logged
// and degrade to a miss; they never fail the underlying call.
type Caching struct {
	forward
	match matcher
	opts  CachingOptions
	log   *logger.Logger

	mu       sync.Mutex
	entries  map[string]*list.Element
	access   *list.List // front = most recently accessed
	memBytes int64

	hits          int64
	misses        int64
	evictions     int64
	invalidations int64
}

var _ Decorator = (*Caching)(nil)

// NewCaching wraps target in a caching decorator.
func NewCaching(target registry.Invoker, opts CachingOptions) *Caching {
	opts.applyDefaults()
	return &Caching{
		forward: forward{target: target},
		match:   newMatcher(opts.Include, opts.Exclude),
		opts:    opts,
		log:     logger.Get("decorator.caching").WithFields(logger.Fields(logger.FieldService, target.ServiceName())),
		entries: make(map[string]*list.Element),
		access:  list.New(),
	}
}

// Kind returns TypeCaching.
func (d *Caching) Kind() Type { return TypeCaching }

// Invoke dispatches according to the method's declared cache mode.
func (d *Caching) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	spec, ok := d.opts.Methods[method]
	if !ok || spec.Mode == ModeNone || spec.Mode == "" || !d.match.intercepts(method) {
		return d.target.Invoke(ctx, method, args...)
	}

	if spec.Mode == ModeWrite {
		return d.invokeWrite(ctx, method, args...)
	}
	return d.invokeRead(ctx, method, spec, args...)
}

// invokeWrite forwards the call and, on success, invalidates every cached
// entry belonging to this service.
func (d *Caching) invokeWrite(ctx context.Context, method string, args ...any) (any, error) {
	result, err := d.target.Invoke(ctx, method, args...)
	if err != nil {
		return nil, err
	}

	cleared := d.ClearCache()
	if cleared > 0 {
		d.log.Debug("Cache invalidated by write", logger.Fields(
			logger.FieldMethod, method,
			"entries", cleared,
		))
	}
	return result, nil
}

func (d *Caching) invokeRead(ctx context.Context, method string, spec MethodSpec, args ...any) (any, error) {
	key, err := d.cacheKey(method, args)
	if err != nil {
		// Unserializable arguments: degrade to an uncached call.
		d.log.Warn("Cache key derivation failed", logger.Fields(
			logger.FieldMethod, method,
			logger.FieldError, apperrors.CacheFailure("key", err).Error(),
		))
		return d.target.Invoke(ctx, method, args...)
	}

	if value, ok := d.lookup(key); ok {
		return value, nil
	}

	result, err := d.target.Invoke(ctx, method, args...)
	if err != nil {
		return nil, err
	}

	d.store(key, method, spec, result)
	return result, nil
}

// lookup returns a live cached value, evicting the entry lazily if it has
// expired.
func (d *Caching) lookup(key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	elem, ok := d.entries[key]
	if !ok {
		d.misses++
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		d.removeElement(elem)
		d.misses++
		return nil, false
	}

	entry.lastAccessed = time.Now()
	d.access.MoveToFront(elem)
	d.hits++
	return entry.value, true
}

// store inserts a result, evicting the least recently accessed entry first
// when the cache is at capacity. Serialization failures are logged and the
// result simply stays uncached.
func (d *Caching) store(key, method string, spec MethodSpec, result any) {
	serialized, err := json.Marshal(result)
	if err != nil {
		d.log.Warn("Cache set failed", logger.Fields(
			logger.FieldMethod, method,
			logger.FieldCacheKey, key,
			logger.FieldError, apperrors.CacheFailure("set", err).Error(),
		))
		return
	}

	ttl := spec.TTL
	if ttl <= 0 {
		ttl = d.opts.DefaultTTL
	}

	now := time.Now()
	entry := &cacheEntry{
		key:          key,
		method:       method,
		value:        result,
		size:         len(serialized),
		createdAt:    now,
		lastAccessed: now,
		expiresAt:    now.Add(ttl),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if elem, exists := d.entries[key]; exists {
		d.removeElement(elem)
	}
	for len(d.entries) >= d.opts.MaxEntries {
		oldest := d.access.Back()
		if oldest == nil {
			break
		}
		d.removeElement(oldest)
		d.evictions++
	}

	d.entries[key] = d.access.PushFront(entry)
	d.memBytes += int64(entry.size)
}

// removeElement drops an entry. Callers must hold the lock.
func (d *Caching) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(d.entries, entry.key)
	d.access.Remove(elem)
	d.memBytes -= int64(entry.size)
}

// ClearCache drops every entry and returns how many were removed.
func (d *Caching) ClearCache() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cleared := len(d.entries)
	d.entries = make(map[string]*list.Element)
	d.access.Init()
	d.memBytes = 0
	d.invalidations += int64(cleared)
	return cleared
}

// GetStats returns a snapshot of cache effectiveness.
func (d *Caching) GetStats() CachingStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := d.hits + d.misses
	rate := 0.0
	if total > 0 {
		rate = float64(d.hits) / float64(total)
	}
	return CachingStats{
		Hits:          d.hits,
		Misses:        d.misses,
		Evictions:     d.evictions,
		Invalidations: d.invalidations,
		Size:          len(d.entries),
		HitRate:       rate,
		MemoryBytes:   d.memBytes,
	}
}

// cacheKey derives the cache key from service, method, and a serialized
// snapshot of the arguments.
func (d *Caching) cacheKey(method string, args []any) (string, error) {
	if len(args) == 0 {
		return fmt.Sprintf("%s:%s", d.target.ServiceName(), method), nil
	}

	var sb strings.Builder
	sb.WriteString(d.target.ServiceName())
	sb.WriteByte(':')
	sb.WriteString(method)
	sb.WriteByte(':')

	serialized, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	sb.Write(serialized)
	return sb.String(), nil
}
