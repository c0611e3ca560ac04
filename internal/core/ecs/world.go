package ecs

// World owns the handle pool, the store registry and a deferred release
// queue. Released handles keep resolving until Flush runs at the end of
// the step, so back-references taken earlier in the step stay valid.
type World struct {
	pool         *HandlePool
	registry     *Registry
	releaseQueue []Handle
}

func NewWorld() *World {
	return &World{
		pool:         NewHandlePool(),
		registry:     NewRegistry(),
		releaseQueue: make([]Handle, 0, 32),
	}
}

func (w *World) Pool() *HandlePool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) Create() Handle {
	return w.pool.Create()
}

func (w *World) Alive(h Handle) bool {
	return w.pool.Alive(h)
}

// Release queues a handle for end-of-step cleanup. Releasing the same
// handle twice in one step is harmless.
func (w *World) Release(h Handle) {
	if !w.pool.Alive(h) {
		return
	}
	w.releaseQueue = append(w.releaseQueue, h)
}

// Pending returns the number of handles waiting for Flush.
func (w *World) Pending() int {
	return len(w.releaseQueue)
}

// Flush drops all queued handles from every store and invalidates them.
func (w *World) Flush() {
	for _, h := range w.releaseQueue {
		w.registry.RemoveAll(h)
		w.pool.Destroy(h)
	}
	clear(w.releaseQueue)
	w.releaseQueue = w.releaseQueue[:0]
}
