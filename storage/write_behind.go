package storage

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// WriteBehind runs persistence writes on a single background goroutine so
// callers never wait on storage. Writes are coalesced per key: when several
// writes for the same key are queued only the latest one runs.
type WriteBehind struct {
	mu      sync.Mutex
	idle    *sync.Cond
	pending map[string]func()
	order   []string
	busy    bool
	closed  bool

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewWriteBehind starts the writer goroutine. Call Close to drain and stop it.
func NewWriteBehind() *WriteBehind {
	w := &WriteBehind{
		pending: make(map[string]func()),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	w.idle = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

// Schedule queues write under key, replacing any queued write for the same
// key. After Close the write runs synchronously.
func (w *WriteBehind) Schedule(key string, write func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.run(key, write)
		return
	}
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = write
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every write scheduled so far has run.
func (w *WriteBehind) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.order) > 0 || w.busy {
		w.idle.Wait()
	}
}

// Close runs the queued writes and stops the goroutine.
func (w *WriteBehind) Close() {
	w.closeOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		// writes scheduled while stopping
		w.drain()
	})
}

func (w *WriteBehind) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *WriteBehind) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.busy = false
			w.idle.Broadcast()
			w.mu.Unlock()
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		write := w.pending[key]
		delete(w.pending, key)
		w.busy = true
		w.mu.Unlock()

		w.run(key, write)
	}
}

func (w *WriteBehind) run(key string, write func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "storage").Str("key", key).Interface("panic", r).Msg("write panicked")
		}
	}()
	write()
}
