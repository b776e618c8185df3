package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
)

var _ persistence.ConversationMemory = new(InMemConversationMemory)

type InMemConversationMemory struct {
	mu    sync.Mutex
	turns map[string][]model.MemoryTurn
}

func NewInMemConversationMemory() *InMemConversationMemory {
	return &InMemConversationMemory{
		turns: make(map[string][]model.MemoryTurn),
	}
}

func (m *InMemConversationMemory) Append(ctx context.Context, workflowId string, role model.MemoryRole, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.turns[workflowId], model.MemoryTurn{
		Role:    role,
		Content: content,
		Ts:      time.Now().UnixMilli(),
	})
	if len(turns) > persistence.MemoryLimit {
		turns = turns[len(turns)-persistence.MemoryLimit:]
	}
	m.turns[workflowId] = turns
	return nil
}

func (m *InMemConversationMemory) Read(ctx context.Context, workflowId string) ([]model.MemoryTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[workflowId]
	out := make([]model.MemoryTurn, len(turns))
	copy(out, turns)
	return out, nil
}
