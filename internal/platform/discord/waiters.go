package discord

import "sync"

type waitKey struct {
	channelID string
	userID    string
}

// waiters — ожидающие ответа диалоги. На один канал+пользователя один ждущий,
// это гарантирует session.Guard.
type waiters[T any] struct {
	mu sync.Mutex
	m  map[waitKey]chan T
}

func (w *waiters[T]) add(k waitKey) (<-chan T, func()) {
	ch := make(chan T, 1)
	w.mu.Lock()
	if w.m == nil {
		w.m = map[waitKey]chan T{}
	}
	w.m[k] = ch
	w.mu.Unlock()

	return ch, func() {
		w.mu.Lock()
		if w.m[k] == ch {
			delete(w.m, k)
		}
		w.mu.Unlock()
	}
}

// deliver hands v to the waiter for k and reports whether one was waiting.
func (w *waiters[T]) deliver(k waitKey, v T) bool {
	w.mu.Lock()
	ch, ok := w.m[k]
	if ok {
		delete(w.m, k)
	}
	w.mu.Unlock()
	if !ok {
		return false
	}
	ch <- v
	return true
}
