package bot

import "sync"

// chatTurns orders work per chat without blocking the caller: every update
// waits only for the previous update of the same chat.
type chatTurns struct {
	mu   sync.Mutex
	tail map[int64]chan struct{}
}

func newChatTurns() *chatTurns {
	return &chatTurns{tail: make(map[int64]chan struct{})}
}

// enter reserves the next turn of chatID. wait blocks until the turn comes,
// done hands it to the next update.
func (t *chatTurns) enter(chatID int64) (wait, done func()) {
	t.mu.Lock()
	prev := t.tail[chatID]
	cur := make(chan struct{})
	t.tail[chatID] = cur
	t.mu.Unlock()

	wait = func() {
		if prev != nil {
			<-prev
		}
	}
	done = func() {
		t.mu.Lock()
		if t.tail[chatID] == cur {
			delete(t.tail, chatID)
		}
		t.mu.Unlock()
		close(cur)
	}
	return wait, done
}

func (t *chatTurns) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tail)
}
