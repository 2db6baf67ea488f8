package history

// ring is a fixed-capacity circular deque. Pushing onto a full ring evicts
// the oldest element; popping always takes the newest.
type ring[T any] struct {
	buf  []T
	head int // index of the oldest element
	n    int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) len() int { return r.n }

func (r *ring[T]) cap() int { return len(r.buf) }

// push appends v as the newest element. If the ring was full the oldest
// element is overwritten and returned with evicted set.
func (r *ring[T]) push(v T) (old T, evicted bool) {
	if r.n == len(r.buf) {
		old = r.buf[r.head]
		r.buf[r.head] = v
		r.head = (r.head + 1) % len(r.buf)
		return old, true
	}
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
	return old, false
}

// pop removes and returns the newest element.
func (r *ring[T]) pop() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	i := (r.head + r.n - 1) % len(r.buf)
	v := r.buf[i]
	r.buf[i] = zero
	r.n--
	return v, true
}

// peek returns the newest element without removing it.
func (r *ring[T]) peek() (T, bool) {
	if r.n == 0 {
		var zero T
		return zero, false
	}
	return r.buf[(r.head+r.n-1)%len(r.buf)], true
}

func (r *ring[T]) clear() {
	clear(r.buf)
	r.head = 0
	r.n = 0
}

// items returns the elements oldest first.
func (r *ring[T]) items() []T {
	out := make([]T, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// resize changes the capacity, keeping the newest elements. The dropped
// oldest elements are returned oldest first.
func (r *ring[T]) resize(capacity int) []T {
	items := r.items()
	var dropped []T
	if len(items) > capacity {
		dropped = items[:len(items)-capacity]
		items = items[len(items)-capacity:]
	}
	r.buf = make([]T, capacity)
	copy(r.buf, items)
	r.head = 0
	r.n = len(items)
	return dropped
}
