package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-edge/query/ast"
	"github.com/satishbabariya/prisma-edge/query/planner"
)

func pipeline(label string) []planner.Operation {
	return []planner.Operation{{Label: label, SQL: "SELECT 1"}}
}

func TestKey(t *testing.T) {
	where := ast.Args{Where: ast.O("uuid", "p-1")}

	a, ok := Key("post", ast.VerbFindUnique, false, where)
	require.True(t, ok)
	b, _ := Key("post", ast.VerbFindUnique, false, ast.Args{Where: ast.O("uuid", "p-1")})
	assert.Equal(t, a, b)
	assert.Regexp(t, `^post:findUnique:[0-9a-f]{32}$`, a)

	differ := []struct {
		name   string
		model  string
		verb   ast.Verb
		args   ast.Args
		strict bool
	}{
		{"model", "user", ast.VerbFindUnique, where, false},
		{"verb", "post", ast.VerbDelete, where, false},
		{"strict", "post", ast.VerbFindUnique, where, true},
		{"value", "post", ast.VerbFindUnique, ast.Args{Where: ast.O("uuid", "p-2")}, false},
		{"type", "post", ast.VerbFindUnique, ast.Args{Where: ast.O("uuid", 1)}, false},
		{"bytes", "post", ast.VerbFindUnique, ast.Args{Where: ast.O("uuid", []byte("p-1"))}, false},
		{"order", "post", ast.VerbFindUnique, ast.Args{Select: ast.O("a", true, "b", true), Where: ast.O("uuid", "p-1")}, false},
		{"take", "post", ast.VerbFindUnique, ast.Args{Where: ast.O("uuid", "p-1"), Take: ast.Int(1)}, false},
	}
	seen := map[string]string{a: "base"}
	for _, tc := range differ {
		k, ok := Key(tc.model, tc.verb, tc.strict, tc.args)
		require.True(t, ok, tc.name)
		prev, dup := seen[k]
		assert.False(t, dup, "%s collides with %s", tc.name, prev)
		seen[k] = tc.name
	}

	m1, _ := Key("post", ast.VerbFindMany, false, ast.Args{Where: map[string]any{"a": 1, "b": 2}})
	m2, _ := Key("post", ast.VerbFindMany, false, ast.Args{Where: map[string]any{"b": 2, "a": 1}})
	assert.Equal(t, m1, m2, "plain maps hash independent of iteration order")

	_, ok = Key("post", ast.VerbFindMany, false, ast.Args{Where: ast.O("uuid", struct{}{})})
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c := New(2, 0)
	c.Set("a", pipeline("a"))
	c.Set("b", pipeline("b"))
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", pipeline("c"))

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	ops, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", ops[0].Label)

	s := c.Stats()
	assert.Equal(t, 2, s.Size)
	assert.Equal(t, int64(1), s.Evictions)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 66.67, s.HitRate, 0.01)
}

func TestTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(4, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", pipeline("a"))
	_, ok := c.Get("a")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestInvalidate(t *testing.T) {
	c := New(10, 0)
	c.Set("post:findMany:1", pipeline("1"))
	c.Set("post:count:2", pipeline("2"))
	c.Set("user:findMany:3", pipeline("3"))

	c.InvalidatePattern("post:*:*")
	assert.Equal(t, 1, c.Stats().Size)
	_, ok := c.Get("user:findMany:3")
	assert.True(t, ok)

	c.Invalidate("user:findMany:3")
	assert.Equal(t, 0, c.Stats().Size)

	c.Set("x", pipeline("x"))
	c.Clear()
	assert.Equal(t, Stats{MaxSize: 10}, c.Stats())
}

func TestGetOrCompile(t *testing.T) {
	c := New(10, 0)
	var compiles atomic.Int32
	compile := func() ([]planner.Operation, error) {
		compiles.Add(1)
		time.Sleep(10 * time.Millisecond)
		return pipeline("compiled"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ops, err := c.GetOrCompile("k", compile)
			assert.NoError(t, err)
			assert.Equal(t, "compiled", ops[0].Label)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), compiles.Load())

	boom := errors.New("boom")
	_, err := c.GetOrCompile("bad", func() ([]planner.Operation, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get("bad")
	assert.False(t, ok, "errors are not cached")
}
