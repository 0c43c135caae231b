package blog

import (
	"sync"
	"time"
)

// IDGenerator выдаёт id на основе времени в миллисекундах,
// но строго возрастающие: два вызова в одну миллисекунду не совпадут.
type IDGenerator struct {
	now  func() time.Time
	last int64
	mu   sync.Mutex
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Observe сдвигает нижнюю границу, чтобы новые id были больше id.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}

func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
