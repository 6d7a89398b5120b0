package cache

import "cmp"

// nilIndex marks a missing child.
const nilIndex = -1

// Tree is an unbalanced binary search tree over an arena of entries.
// Keys are unique: the left subtree of a node holds smaller keys, the right
// subtree larger ones.
//
// Tree must not be copied after first use.
type Tree[K cmp.Ordered, V any] struct {
	entries []entry[K, V]
	root    int32
	hits    uint64
	misses  uint64
}

// entry is one arena slot.
type entry[K cmp.Ordered, V any] struct {
	key         K
	value       V
	left, right int32
}

// NewTree creates an empty tree.
func NewTree[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{root: nilIndex}
}

// find walks from the root. It returns the index of key, or nilIndex
// together with the parent to attach a new node to and the side.
func (t *Tree[K, V]) find(key K) (idx, parent int32, less bool) {
	parent = nilIndex
	for i := t.root; i != nilIndex; {
		e := &t.entries[i]
		switch c := cmp.Compare(key, e.key); {
		case c == 0:
			return i, parent, false
		case c < 0:
			parent, less, i = i, true, e.left
		default:
			parent, less, i = i, false, e.right
		}
	}
	return nilIndex, parent, less
}

// Get retrieves the value stored under key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	if i, _, _ := t.find(key); i != nilIndex {
		t.hits++
		return t.entries[i].value, true
	}
	t.misses++
	var zero V
	return zero, false
}

// GetOrInsert returns the value stored under key. On a miss, create is
// called once and its result inserted at the position the lookup ended
// on. hit reports whether the value was already present.
func (t *Tree[K, V]) GetOrInsert(key K, create func() V) (v V, hit bool) {
	i, parent, less := t.find(key)
	if i != nilIndex {
		t.hits++
		return t.entries[i].value, true
	}
	t.misses++

	v = create()
	n := int32(len(t.entries))
	t.entries = append(t.entries, entry[K, V]{key: key, value: v, left: nilIndex, right: nilIndex})
	switch {
	case parent == nilIndex:
		t.root = n
	case less:
		t.entries[parent].left = n
	default:
		t.entries[parent].right = n
	}
	return v, false
}

// Len returns the number of entries.
func (t *Tree[K, V]) Len() int { return len(t.entries) }

// Depth returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[K, V]) Depth() int {
	if t.root == nilIndex {
		return 0
	}
	type frame struct {
		i     int32
		depth int
	}
	deepest := 0
	stack := []frame{{t.root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		deepest = max(deepest, f.depth)
		e := &t.entries[f.i]
		if e.left != nilIndex {
			stack = append(stack, frame{e.left, f.depth + 1})
		}
		if e.right != nilIndex {
			stack = append(stack, frame{e.right, f.depth + 1})
		}
	}
	return deepest
}

// Keys returns all keys in ascending order.
func (t *Tree[K, V]) Keys() []K {
	keys := make([]K, 0, len(t.entries))
	var stack []int32
	for i := t.root; i != nilIndex || len(stack) > 0; {
		for i != nilIndex {
			stack = append(stack, i)
			i = t.entries[i].left
		}
		i = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		keys = append(keys, t.entries[i].key)
		i = t.entries[i].right
	}
	return keys
}

// Each calls fn for every entry in insertion order.
func (t *Tree[K, V]) Each(fn func(K, V)) {
	for i := range t.entries {
		fn(t.entries[i].key, t.entries[i].value)
	}
}

// Clear removes all entries and resets the statistics. Values are not
// released; use Each first if they own resources.
func (t *Tree[K, V]) Clear() {
	clear(t.entries)
	t.entries = t.entries[:0]
	t.root = nilIndex
	t.hits = 0
	t.misses = 0
}

// Stats returns tree statistics.
func (t *Tree[K, V]) Stats() Stats {
	s := Stats{
		Len:    len(t.entries),
		Depth:  t.Depth(),
		Hits:   t.hits,
		Misses: t.misses,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Depth is the height of the tree.
	Depth int
	// Hits is the number of lookups that found their key.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0.0 to 1.0.
	HitRate float64
}
