// Package cache keeps compiled pipelines so repeated calls with the same
// descriptor skip normalization and planning.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/satishbabariya/prisma-edge/query/ast"
	"github.com/satishbabariya/prisma-edge/query/planner"
)

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

type entry struct {
	key       string
	ops       []planner.Operation
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// PlanCache is an LRU cache of pipelines with an optional TTL. Cached
// operations are shared between callers and must not be mutated; the
// executor binds placeholders on copies.
type PlanCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	stats   Stats
	group   singleflight.Group
	now     func() time.Time
}

// New returns a cache holding at most maxSize pipelines. A zero ttl keeps
// entries until they are evicted.
func New(maxSize int, ttl time.Duration) *PlanCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &PlanCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		stats:   Stats{MaxSize: maxSize},
		now:     time.Now,
	}
}

// Key identifies a call by model, verb, strictness and a digest of every
// value in args. The second result is false when args hold a value that
// cannot be digested, in which case the call should bypass the cache.
func Key(modelName string, verb ast.Verb, strict bool, args ast.Args) (string, bool) {
	h := sha256.New()
	fmt.Fprintf(h, "%t|", strict)
	for _, v := range []any{args.Select, args.Where, args.Data, args.Create, args.Update} {
		if !digest(h, reflect.ValueOf(v)) {
			return "", false
		}
		h.Write([]byte{'|'})
	}
	for _, n := range []*int{args.Skip, args.Take} {
		if n == nil {
			h.Write([]byte("-|"))
			continue
		}
		fmt.Fprintf(h, "%d|", *n)
	}
	return modelName + ":" + string(verb) + ":" + hex.EncodeToString(h.Sum(nil))[:32], true
}

// digest writes a type-tagged encoding of v so values that print alike,
// such as "1" and 1, hash differently.
func digest(w io.Writer, v reflect.Value) bool {
	if !v.IsValid() {
		io.WriteString(w, "nil")
		return true
	}
	if o, ok := v.Interface().(ast.Ordered); ok {
		io.WriteString(w, "{")
		for _, e := range o {
			fmt.Fprintf(w, "%q:", e.Key)
			if !digest(w, reflect.ValueOf(e.Value)) {
				return false
			}
			io.WriteString(w, ",")
		}
		io.WriteString(w, "}")
		return true
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			io.WriteString(w, "nil")
			return true
		}
		return digest(w, v.Elem())
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return false
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		fmt.Fprintf(w, "%s{", v.Type())
		for _, k := range keys {
			fmt.Fprintf(w, "%q:", k.String())
			if !digest(w, v.MapIndex(k)) {
				return false
			}
			io.WriteString(w, ",")
		}
		io.WriteString(w, "}")
		return true
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			fmt.Fprintf(w, "%s(%x)", v.Type(), v.Bytes())
			return true
		}
		fmt.Fprintf(w, "%s[", v.Type())
		for i := 0; i < v.Len(); i++ {
			if !digest(w, v.Index(i)) {
				return false
			}
			io.WriteString(w, ",")
		}
		io.WriteString(w, "]")
		return true
	case reflect.String:
		fmt.Fprintf(w, "%s(%q)", v.Type(), v.String())
		return true
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		fmt.Fprintf(w, "%s(%v)", v.Type(), v.Interface())
		return true
	case reflect.Struct:
		if t, ok := v.Interface().(time.Time); ok {
			fmt.Fprintf(w, "time(%s)", t.Format(time.RFC3339Nano))
			return true
		}
	}
	return false
}

// Get returns the pipeline stored under key.
func (c *PlanCache) Get(key string) ([]planner.Operation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if e.expired(c.now()) {
		c.remove(el)
		c.stats.Misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return e.ops, true
}

// Set stores ops under key, evicting the least recently used pipeline when
// the cache is full.
func (c *PlanCache) Set(key string, ops []planner.Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.ops, e.expiresAt = ops, expiresAt
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.maxSize {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}
	c.items[key] = c.order.PushFront(&entry{key: key, ops: ops, expiresAt: expiresAt})
}

// GetOrCompile returns the cached pipeline or compiles, stores and returns
// a new one. Concurrent misses on the same key compile once. Compile
// errors are not cached.
func (c *PlanCache) GetOrCompile(key string, compile func() ([]planner.Operation, error)) ([]planner.Operation, error) {
	if ops, ok := c.Get(key); ok {
		return ops, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if ops, ok := c.peek(key); ok {
			return ops, nil
		}
		ops, err := compile()
		if err != nil {
			return nil, err
		}
		c.Set(key, ops)
		return ops, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]planner.Operation), nil
}

// Invalidate removes a specific key from the cache
func (c *PlanCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// InvalidatePattern removes every key matching pattern. Patterns have the
// key's "model:verb:hash" shape with "*" for any part, e.g. "post:*:*".
func (c *PlanCache) InvalidatePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.items {
		if matchesPattern(key, pattern) {
			c.remove(el)
		}
	}
}

// Clear removes all entries from the cache
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.stats = Stats{MaxSize: c.maxSize}
}

// Stats returns cache statistics
func (c *PlanCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.order.Len()
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

// peek is Get without touching the statistics.
func (c *PlanCache) peek(key string) ([]planner.Operation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok || el.Value.(*entry).expired(c.now()) {
		return nil, false
	}
	return el.Value.(*entry).ops, true
}

func (c *PlanCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

func matchesPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}
	parts := strings.Split(pattern, ":")
	keyParts := strings.Split(key, ":")
	if len(parts) != len(keyParts) {
		return false
	}
	for i, part := range parts {
		if part != "*" && part != keyParts[i] {
			return false
		}
	}
	return true
}
