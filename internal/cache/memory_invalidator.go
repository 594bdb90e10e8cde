package cache

import (
	"context"
	"sync"
)

// MemoryInvalidator разносит уведомления между кешами одного процесса.
// Каждый кеш получает свою «ноду» через Node.
type MemoryInvalidator struct {
	mu       sync.RWMutex
	handlers map[string]InvalidationHandler
}

func NewMemoryInvalidator() *MemoryInvalidator {
	return &MemoryInvalidator{handlers: make(map[string]InvalidationHandler)}
}

// Node возвращает Invalidator, который не получает собственные сообщения
func (m *MemoryInvalidator) Node(nodeID string) Invalidator {
	return &memoryNode{hub: m, nodeID: nodeID}
}

type memoryNode struct {
	hub    *MemoryInvalidator
	nodeID string
}

func (n *memoryNode) Publish(_ context.Context, key string) error {
	n.hub.mu.RLock()
	defer n.hub.mu.RUnlock()
	for id, h := range n.hub.handlers {
		if id == n.nodeID {
			continue
		}
		_ = h(key)
	}
	return nil
}

func (n *memoryNode) Subscribe(ctx context.Context, handler InvalidationHandler) error {
	n.hub.mu.Lock()
	defer n.hub.mu.Unlock()
	if _, ok := n.hub.handlers[n.nodeID]; ok {
		return ErrAlreadySubscribed
	}
	n.hub.handlers[n.nodeID] = handler
	go func() {
		<-ctx.Done()
		n.unsubscribe()
	}()
	return nil
}

func (n *memoryNode) unsubscribe() {
	n.hub.mu.Lock()
	delete(n.hub.handlers, n.nodeID)
	n.hub.mu.Unlock()
}

func (n *memoryNode) Close() error {
	n.unsubscribe()
	return nil
}
