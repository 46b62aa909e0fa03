package storage

import "sync"

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

const (
	EntityAccount     Entity = "account"
	EntityCategory    Entity = "category"
	EntitySubcategory Entity = "subcategory"
	EntityOperation   Entity = "operation"
	EntityTransfer    Entity = "transfer"
	EntityReminder    Entity = "reminder"
)

type (
	ChangeOp string
	Entity   string

	// Change describes a committed mutation. Subscribers use it to refresh
	// views or invalidate caches; they re-read through the repository for
	// the actual data.
	Change struct {
		Entity Entity
		Op     ChangeOp
		ID     int64
	}
)

// watcher is a minimal in-process observe-on-change fanout. Events are
// dropped for subscribers that fall behind rather than blocking a commit.
type watcher struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	closed bool
}

func newWatcher() *watcher {
	return &watcher{subs: make(map[int]chan Change)}
}

func (w *watcher) subscribe() (<-chan Change, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	ch := make(chan Change, 64)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	w.subs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (w *watcher) publish(c Change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs {
		select {
		case ch <- c:
		default:
			// Slow subscriber, drop the event.
		}
	}
}

func (w *watcher) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	for id, ch := range w.subs {
		delete(w.subs, id)
		close(ch)
	}
}
