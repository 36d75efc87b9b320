package messaging

// dedupWindow remembers the last limit event ids seen by a consumer. When
// full, the oldest id is evicted, so a redelivery far outside the window is
// processed again. That is acceptable: handlers are idempotent.
type dedupWindow struct {
	limit int
	seen  map[string]struct{}
	ids   []string
	next  int
}

func newDedupWindow(limit int) *dedupWindow {
	return &dedupWindow{
		limit: limit,
		seen:  make(map[string]struct{}, limit),
		ids:   make([]string, limit),
	}
}

// Seen reports whether id was already recorded.
func (w *dedupWindow) Seen(id string) bool {
	_, ok := w.seen[id]
	return ok
}

// Record adds id, evicting the oldest entry once the window is full.
func (w *dedupWindow) Record(id string) {
	if _, ok := w.seen[id]; ok {
		return
	}
	if old := w.ids[w.next]; old != "" {
		delete(w.seen, old)
	}
	w.ids[w.next] = id
	w.seen[id] = struct{}{}
	w.next = (w.next + 1) % w.limit
}
