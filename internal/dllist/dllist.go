// Package dllist implements the sentinel-node doubly-linked circular list
// §4.D calls for, generic over the keyed payload it carries. Grounded on
// original_source/kernel/dllist.c (node_t/dllist with a sentinel node,
// append/find/delete/delete_key) translated into idiomatic generic Go.
package dllist

// Node is one entry in a List. The zero Node is not usable; obtain nodes
// only via List.Append.
type Node[T any] struct {
	Key  int
	Data T
	prev *Node[T]
	next *Node[T]
	list *List[T]
}

// List is a sentinel-node circular doubly-linked list keyed by an int,
// used for per-process resource lists and the scheduler's queues (§4.D).
type List[T any] struct {
	sentinel Node[T]
	len      int
}

// New returns an empty, ready-to-use List.
func New[T any]() *List[T] {
	l := &List[T]{}
	l.sentinel.next = &l.sentinel
	l.sentinel.prev = &l.sentinel
	return l
}

// Len returns the number of elements currently in the list.
func (l *List[T]) Len() int { return l.len }

// Append inserts a new node carrying (key, data) at the tail and returns it.
func (l *List[T]) Append(key int, data T) *Node[T] {
	n := &Node[T]{Key: key, Data: data, list: l}
	tail := l.sentinel.prev
	n.prev = tail
	n.next = &l.sentinel
	tail.next = n
	l.sentinel.prev = n
	l.len++
	return n
}

// Find returns the first node whose key matches, or nil.
func (l *List[T]) Find(key int) *Node[T] {
	for n := l.sentinel.next; n != &l.sentinel; n = n.next {
		if n.Key == key {
			return n
		}
	}
	return nil
}

// Delete unlinks n from its list. n must belong to l.
func (l *List[T]) Delete(n *Node[T]) {
	if n == nil || n.list != l {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
	n.list = nil
	l.len--
}

// DeleteKey removes the first node matching key, reporting whether one was
// found.
func (l *List[T]) DeleteKey(key int) bool {
	n := l.Find(key)
	if n == nil {
		return false
	}
	l.Delete(n)
	return true
}

// Foreach calls fn for every node in insertion order. fn must not mutate
// the list it is iterating.
func (l *List[T]) Foreach(fn func(key int, data T)) {
	for n := l.sentinel.next; n != &l.sentinel; n = n.next {
		fn(n.Key, n.Data)
	}
}

// First returns the head node, or nil if the list is empty.
func (l *List[T]) First() *Node[T] {
	if l.sentinel.next == &l.sentinel {
		return nil
	}
	return l.sentinel.next
}

// Next returns the node following n, or nil at the end of the list.
func (n *Node[T]) Next() *Node[T] {
	if n.next == &n.list.sentinel {
		return nil
	}
	return n.next
}
