package notify

import (
	"context"
	"fmt"
	"sync"
)

// Memory stores published payloads for inspection; it is the default sink
// when no Pub/Sub topic is configured, and doubles as the test fake.
type Memory struct {
	mu       sync.RWMutex
	messages []PublishedMessage
}

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// NewMemory returns an empty Memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish records the message and returns a pseudo ID.
func (p *Memory) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Payload: payload})
	return fmt.Sprintf("memory-%d", len(p.messages)), nil
}

// Messages returns a copy of the recorded publishes.
func (p *Memory) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
