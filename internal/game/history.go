package game

import (
	"sync"

	"github.com/mrader1248/happy-games/internal/types"
)

// History is an in-memory buffer that retains the last N broadcast
// messages of a game in append order.
type History struct {
	mu   sync.Mutex
	msgs []types.Message
	max  int
}

// NewHistory creates a History keeping at most max messages.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Append adds a message at the tail, dropping the oldest entries when
// the buffer exceeds its limit.
func (h *History) Append(msg types.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appendLocked(msg)
}

// AppendAndDeliver appends msg and calls deliver before releasing the
// buffer lock. Concurrent appends therefore deliver in the same order
// they land in the buffer, and a replay in progress cannot interleave
// with the delivery.
func (h *History) AppendAndDeliver(msg types.Message, deliver func(types.Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.appendLocked(msg)
	if deliver != nil {
		deliver(msg)
	}
}

func (h *History) appendLocked(msg types.Message) {
	h.msgs = append(h.msgs, msg)
	if len(h.msgs) > h.max {
		// drop oldest
		excess := len(h.msgs) - h.max
		h.msgs = h.msgs[excess:]
	}
}

// Recent returns a copy of the buffered messages, oldest first.
func (h *History) Recent() []types.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]types.Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Len returns the number of buffered messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

// Replay calls deliver for every buffered message oldest first and
// then calls done, all while holding the buffer lock. No Append can
// interleave between the last delivered message and done, which lets
// callers open a player's live gate with no window where a message is
// neither replayed nor forwarded live.
func (h *History) Replay(deliver func(types.Message), done func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, msg := range h.msgs {
		deliver(msg)
	}
	if done != nil {
		done()
	}
}
