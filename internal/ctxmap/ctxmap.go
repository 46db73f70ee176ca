// Package ctxmap provides a small generic concurrent map, used wherever
// this module needs a concurrency-safe key/value store without pulling
// in a whole context-cancellation wrapper: the Status Mirror's
// last-message/count tables are built on it.
package ctxmap

import "sync"

// Map is a concurrency-safe key/value store keyed by a comparable T.
type Map[T comparable] struct {
	m sync.Map
}

func New[T comparable]() *Map[T] {
	return &Map[T]{}
}

func (c *Map[T]) Load(key T) (val interface{}, ok bool) {
	return c.m.Load(key)
}

func (c *Map[T]) Store(key T, val interface{}) {
	if val == nil {
		c.m.Delete(key)
		return
	}
	c.m.Store(key, val)
}

func (c *Map[T]) Delete(key T) {
	c.m.Delete(key)
}

func (c *Map[T]) Clean() {
	c.m.Range(func(key, _ any) bool {
		c.m.Delete(key)
		return true
	})
}

// Walk calls fct for every key/value pair; it stops early if fct
// returns false.
func (c *Map[T]) Walk(fct func(key T, val interface{}) bool) {
	c.m.Range(func(key, val any) bool {
		return fct(key.(T), val)
	})
}
