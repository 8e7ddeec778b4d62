// Package agentpool rotates browser user-agent strings across fetches.
package agentpool

import (
	"fmt"
	"math/rand"
	"sync"
)

// DefaultAgents covers current Chrome, Firefox and Safari builds on the
// major desktop platforms.
var DefaultAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Pool is a thread-safe round-robin rotation over a fixed agent list. The
// starting cursor is randomized so independent processes do not all present
// the same identity first.
type Pool struct {
	mu     sync.Mutex
	agents []string
	cursor int
}

// New builds a Pool. The agent list must be non-empty.
func New(agents []string) (*Pool, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("user agent pool cannot be empty")
	}
	copied := make([]string, len(agents))
	copy(copied, agents)
	return &Pool{
		agents: copied,
		cursor: rand.Intn(len(copied)),
	}, nil
}

// Next returns the agent at the cursor and advances it. Round-robin coverage
// is guaranteed under concurrent callers.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	agent := p.agents[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.agents)
	return agent
}

// Current returns the agent at the cursor without advancing.
func (p *Pool) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agents[p.cursor]
}

// Reset re-randomizes the cursor, decorrelating agent selection across
// independent runs.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = rand.Intn(len(p.agents))
}

// Size reports the number of agents in the pool.
func (p *Pool) Size() int {
	return len(p.agents)
}
