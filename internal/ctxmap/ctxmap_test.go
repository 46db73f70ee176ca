package ctxmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreLoadDelete(t *testing.T) {
	m := New[string]()

	_, ok := m.Load("heartbeat")
	require.False(t, ok)

	m.Store("heartbeat", 42)
	v, ok := m.Load("heartbeat")
	require.True(t, ok)
	require.Equal(t, 42, v)

	m.Store("heartbeat", nil)
	_, ok = m.Load("heartbeat")
	require.False(t, ok)
}

func TestWalk(t *testing.T) {
	m := New[string]()
	m.Store("a", 1)
	m.Store("b", 2)

	seen := map[string]int{}
	m.Walk(func(key string, val interface{}) bool {
		seen[key] = val.(int)
		return true
	})

	require.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}
