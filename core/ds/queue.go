package ds

// Queue is an unbounded FIFO backed by a growable ring buffer. Items live in
// an arena slice and the head index advances on Pop, so neither Push nor Pop
// shifts elements.
//
// The zero value is an empty queue. Queue is not safe for concurrent use;
// owners serialize access.
type Queue[T any] struct {
	buf  []T
	head int
	n    int
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int { return q.n }

// IsEmpty reports whether the queue holds no items.
func (q *Queue[T]) IsEmpty() bool { return q.n == 0 }

// Push appends v at the tail. (mutates)
func (q *Queue[T]) Push(v T) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = v
	q.n++
}

// Pop removes and returns the head item. ok is false on an empty queue. (mutates)
func (q *Queue[T]) Pop() (v T, ok bool) {
	if q.n == 0 {
		return v, false
	}
	var zero T
	v = q.buf[q.head]
	q.buf[q.head] = zero // release reference for GC
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	if q.n == 0 {
		q.head = 0
	}
	return v, true
}

// Clear drops all items and returns how many were dropped. (mutates)
func (q *Queue[T]) Clear() int {
	n := q.n
	clear(q.buf)
	q.head, q.n = 0, 0
	return n
}

func (q *Queue[T]) grow() {
	size := 2 * len(q.buf)
	if size == 0 {
		size = 8
	}
	buf := make([]T, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
