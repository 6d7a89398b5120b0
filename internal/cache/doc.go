// Package cache provides the ordered program cache used by the render
// context.
//
// # Tree[K, V]
//
// An unbalanced binary search tree stored in an arena. Entries are
// appended in insertion order and children are arena indices, so teardown
// is a single pass over a slice:
//
//	t := cache.NewTree[uint64, *program]()
//	p, hit := t.GetOrInsert(key, compile)
//	t.Each(func(k uint64, p *program) { p.release() })
//	t.Clear()
//
// No rebalancing is done. The tree shape follows key arrival order, which
// is fine for the tens to low hundreds of distinct keys a workload sees.
//
// # Thread Safety
//
// Tree is not safe for concurrent use. Callers that share a tree between
// goroutines must hold one lock around the whole lookup-or-insert.
package cache
