package out

import (
	"sync"

	"studywarden/internal/modules/analysis/domain"
)

type MemoryFrameBuffer struct {
	mu     sync.Mutex
	frames map[string]domain.Frame
}

func NewMemoryFrameBuffer() *MemoryFrameBuffer {
	return &MemoryFrameBuffer{frames: map[string]domain.Frame{}}
}

// Put overwrites any frame not yet analyzed; only the latest matters.
func (b *MemoryFrameBuffer) Put(frame domain.Frame) {
	b.mu.Lock()
	b.frames[frame.SessionID] = frame
	b.mu.Unlock()
}

func (b *MemoryFrameBuffer) Take(sessionID string) (domain.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	frame, ok := b.frames[sessionID]
	if ok {
		delete(b.frames, sessionID)
	}
	return frame, ok
}

func (b *MemoryFrameBuffer) Drop(sessionID string) {
	b.mu.Lock()
	delete(b.frames, sessionID)
	b.mu.Unlock()
}
