package cloud

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
)

// DefaultPoolSize is the number of transport handles in a pool when no size is given
const DefaultPoolSize = 5

// TransportPool is a bounded, blocking pool of HTTP clients. Handles are
// constructed lazily on first borrow and live until the pool is closed.
// At most Size() handles are ever borrowed at the same time.
type TransportPool struct {
	size    int
	factory func() *http.Client
	slots   chan *http.Client
	done    chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
	inUse     atomic.Int32
	created   atomic.Int32
}

// NewTransportPool creates a pool of size handles built by factory
func NewTransportPool(size int, factory func() *http.Client) *TransportPool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if factory == nil {
		factory = func() *http.Client {
			return &http.Client{Timeout: DefaultTimeout}
		}
	}

	p := &TransportPool{
		size:    size,
		factory: factory,
		slots:   make(chan *http.Client, size),
		done:    make(chan struct{}),
	}

	// Empty slots; the client is built when the slot is first borrowed
	for i := 0; i < size; i++ {
		p.slots <- nil
	}

	return p
}

// Borrow blocks until a handle is available, ctx is done or the pool is closed
func (p *TransportPool) Borrow(ctx context.Context) (*http.Client, error) {
	select {
	case client := <-p.slots:
		// Close may have won the race for this slot
		if p.closed.Load() {
			discard(client)
			return nil, ErrPoolClosed
		}
		if client == nil {
			client = p.factory()
			p.created.Add(1)
		}
		p.inUse.Add(1)
		return client, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Return hands a borrowed handle back to the pool
func (p *TransportPool) Return(client *http.Client) {
	if client == nil {
		return
	}
	p.inUse.Add(-1)

	if p.closed.Load() {
		discard(client)
		return
	}

	select {
	case p.slots <- client:
	default:
		// Returned more handles than were borrowed
		discard(client)
	}
}

// Close releases idle handles and fails all further borrows
func (p *TransportPool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)

		for {
			select {
			case client := <-p.slots:
				discard(client)
			default:
				return
			}
		}
	})
}

func discard(client *http.Client) {
	if client != nil {
		client.CloseIdleConnections()
	}
}

// Size returns the fixed capacity of the pool
func (p *TransportPool) Size() int {
	return p.size
}

// InUse returns the number of handles currently borrowed
func (p *TransportPool) InUse() int {
	return int(p.inUse.Load())
}

// Created returns the number of handles constructed so far
func (p *TransportPool) Created() int {
	return int(p.created.Load())
}
