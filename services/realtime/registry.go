package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Channel is a live, bidirectional connection to one identity.
type Channel interface {
	// Send delivers v as a single frame.
	Send(ctx context.Context, v any) error
}

// Registry maps client and provider identities to their current live channel.
// An identity holds at most one channel per kind; registering again replaces
// the prior entry without closing it.
type Registry struct {
	mu        sync.RWMutex
	clients   map[string]Channel
	providers map[string]Channel
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		clients:   make(map[string]Channel),
		providers: make(map[string]Channel),
		logger:    logger,
	}
}

func (r *Registry) RegisterClient(id string, ch Channel) {
	r.register(r.clients, "client", id, ch)
}

func (r *Registry) RegisterProvider(id string, ch Channel) {
	r.register(r.providers, "provider", id, ch)
}

func (r *Registry) UnregisterClient(id string) {
	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
}

func (r *Registry) UnregisterProvider(id string) {
	r.mu.Lock()
	delete(r.providers, id)
	r.mu.Unlock()
}

// ReleaseClient removes the client entry only if it still points at ch.
func (r *Registry) ReleaseClient(id string, ch Channel) bool {
	return r.release(r.clients, id, ch)
}

// ReleaseProvider removes the provider entry only if it still points at ch.
func (r *Registry) ReleaseProvider(id string, ch Channel) bool {
	return r.release(r.providers, id, ch)
}

// SendToClient delivers msg to the client's channel. It reports false without
// error when the client is not connected.
func (r *Registry) SendToClient(ctx context.Context, id string, msg any) (bool, error) {
	return r.send(ctx, r.clients, id, msg)
}

// SendToProvider delivers msg to the provider's channel. It reports false
// without error when the provider is not connected.
func (r *Registry) SendToProvider(ctx context.Context, id string, msg any) (bool, error) {
	return r.send(ctx, r.providers, id, msg)
}

func (r *Registry) IsClientConnected(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[id]
	return ok
}

func (r *Registry) IsProviderConnected(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[id]
	return ok
}

// Counts returns the number of connected clients and providers.
func (r *Registry) Counts() (clients, providers int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients), len(r.providers)
}

func (r *Registry) register(m map[string]Channel, kind, id string, ch Channel) {
	r.mu.Lock()
	_, replaced := m[id]
	m[id] = ch
	r.mu.Unlock()

	r.logger.Debug("live channel registered",
		zap.String("kind", kind),
		zap.String("id", id),
		zap.Bool("replaced", replaced),
	)
}

func (r *Registry) release(m map[string]Channel, id string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := m[id]; ok && cur == ch {
		delete(m, id)
		return true
	}
	return false
}

func (r *Registry) send(ctx context.Context, m map[string]Channel, id string, msg any) (bool, error) {
	r.mu.RLock()
	ch, ok := m[id]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := ch.Send(ctx, msg); err != nil {
		return false, err
	}
	return true, nil
}
