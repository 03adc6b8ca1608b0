package memo

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeKey(t *testing.T) {
	tests := []struct {
		name   string
		params []any
		want   string
	}{
		{name: "no params", params: nil, want: "[]"},
		{name: "scalar", params: []any{5}, want: "[5]"},
		{name: "mixed", params: []any{5, "open", true, nil}, want: `[5,"open",true,null]`},
		{name: "map keys sorted", params: []any{map[string]int{"b": 2, "a": 1}}, want: `[{"a":1,"b":2}]`},
		{name: "nested slice", params: []any{[]int{1, 2}, 3}, want: `[[1,2],3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MakeKey(tt.params...))
		})
	}

	assert.NotEqual(t, MakeKey(1, 2), MakeKey(2, 1))
	assert.NotEqual(t, MakeKey("1"), MakeKey(1))
	assert.Equal(t, NewKey(3, "x").String(), MakeKey(3, "x"))
	assert.NotEmpty(t, MakeKey(func() {}))
}

func counter(calls *int, val string, err error) FetchFunc[string] {
	return func(context.Context) (string, error) {
		*calls++
		return val, err
	}
}

func runMemoContract(t *testing.T, newMemo func(t *testing.T) *Memo[string]) {
	ctx := context.Background()

	t.Run("set short circuits", func(t *testing.T) {
		m := newMemo(t)
		calls := 0
		key := NewKey(5)
		require.NoError(t, m.Set(ctx, key, false, counter(&calls, "jobs", nil)))
		require.NoError(t, m.Set(ctx, key, false, counter(&calls, "other", nil)))
		assert.Equal(t, 1, calls)

		v, ok := m.Get(ctx, key)
		assert.True(t, ok)
		assert.Equal(t, "jobs", v)
	})

	t.Run("force refetches", func(t *testing.T) {
		m := newMemo(t)
		calls := 0
		key := NewKey(5)
		require.NoError(t, m.Set(ctx, key, false, counter(&calls, "a", nil)))
		require.NoError(t, m.Set(ctx, key, true, counter(&calls, "b", nil)))
		assert.Equal(t, 2, calls)
		assert.Equal(t, "b", m.GetOr(ctx, key, ""))
	})

	t.Run("failed fetch leaves entry unset", func(t *testing.T) {
		m := newMemo(t)
		calls := 0
		key := NewKey(9)
		boom := errors.New("boom")
		err := m.Set(ctx, key, false, counter(&calls, "", boom))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)

		_, ok := m.Get(ctx, key)
		assert.False(t, ok)
		assert.Equal(t, "fallback", m.GetOr(ctx, key, "fallback"))

		require.NoError(t, m.Set(ctx, key, false, counter(&calls, "ok", nil)))
		assert.Equal(t, 2, calls)
	})

	t.Run("failed forced fetch keeps old entry", func(t *testing.T) {
		m := newMemo(t)
		calls := 0
		key := NewKey("k")
		require.NoError(t, m.Set(ctx, key, false, counter(&calls, "old", nil)))
		require.Error(t, m.Set(ctx, key, true, counter(&calls, "", errors.New("down"))))
		assert.Equal(t, "old", m.GetOr(ctx, key, ""))
	})

	t.Run("distinct keys", func(t *testing.T) {
		m := newMemo(t)
		calls := 0
		require.NoError(t, m.Set(ctx, NewKey(1, "a"), false, counter(&calls, "x", nil)))
		require.NoError(t, m.Set(ctx, NewKey(1, "b"), false, counter(&calls, "y", nil)))
		assert.Equal(t, 2, calls)

		n, err := m.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.NoError(t, m.Delete(ctx, NewKey(1, "a")))
		n, err = m.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestMemo_Memory(t *testing.T) {
	runMemoContract(t, func(t *testing.T) *Memo[string] {
		return NewMemory[string]("test")
	})
}

func TestMemo_Redis(t *testing.T) {
	runMemoContract(t, func(t *testing.T) *Memo[string] {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		return New[string]("test", NewRedisBackend[string](rdb, "navguard:test"))
	})
}

func TestRedisBackend_JSONValues(t *testing.T) {
	type job struct {
		ID    int    `json:"id"`
		Title string `json:"job_title"`
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	m := New[[]job]("jobs", NewRedisBackend[[]job](rdb, "navguard:jobs"))
	key := NewKey(5)
	require.NoError(t, m.Set(ctx, key, false, func(context.Context) ([]job, error) {
		return []job{{ID: 1, Title: "Engineer"}}, nil
	}))

	raw, err := mr.Get("navguard:jobs:[5]")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"job_title":"Engineer"}]`, raw)
	assert.Zero(t, mr.TTL("navguard:jobs:[5]"))

	other := New[[]job]("jobs", NewRedisBackend[[]job](rdb, "navguard:jobs"))
	got, ok := other.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "Engineer", got[0].Title)
}

func TestRedisBackend_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	ctx := context.Background()
	m := New[string]("down", NewRedisBackend[string](rdb, "p"))
	_, ok := m.Get(ctx, NewKey(1))
	assert.False(t, ok)

	err := m.Set(ctx, NewKey(1), false, func(context.Context) (string, error) { return "v", nil })
	assert.Error(t, err)

	var nilBackend RedisBackend[string]
	_, _, err = nilBackend.Load(ctx, "x")
	assert.Error(t, err)
}
