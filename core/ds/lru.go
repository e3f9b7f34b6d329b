package ds

import "container/list"

// LRU is a fixed-size set that forgets its least recently touched key once
// full. Like Queue it is not synchronized.
type LRU[K comparable] struct {
	size  int
	ll    *list.List
	index map[K]*list.Element
}

// NewLRU returns an LRU holding at most size keys (default 128).
func NewLRU[K comparable](size int) *LRU[K] {
	if size <= 0 {
		size = 128
	}
	return &LRU[K]{
		size:  size,
		ll:    list.New(),
		index: make(map[K]*list.Element, size),
	}
}

func (l *LRU[K]) Len() int { return l.ll.Len() }

// Touch marks k as most recently used, inserting it if absent, and reports
// whether it was already present. Inserting into a full LRU evicts the
// oldest key. (mutates)
func (l *LRU[K]) Touch(k K) (present bool) {
	if ele, ok := l.index[k]; ok {
		l.ll.MoveToFront(ele)
		return true
	}
	l.index[k] = l.ll.PushFront(k)
	if l.ll.Len() > l.size {
		last := l.ll.Back()
		l.ll.Remove(last)
		delete(l.index, last.Value.(K))
	}
	return false
}
