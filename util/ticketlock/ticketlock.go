package ticketlock

import (
	"runtime"
	"sync/atomic"
)

// Mutex is a FIFO spinlock. Each waiter takes a ticket and spins until the
// serving counter reaches it, so lock handoff is strictly in arrival order.
// The zero value is an unlocked mutex.
type Mutex struct {
	ticket  uint32
	serving uint32
}

func (m *Mutex) Lock() {
	t := atomic.AddUint32(&m.ticket, 1) - 1
	for atomic.LoadUint32(&m.serving) != t {
		runtime.Gosched()
	}
}

func (m *Mutex) Unlock() {
	atomic.AddUint32(&m.serving, 1)
}
