// Package shared holds state that several request handlers observe.
package shared

import (
	"strings"
	"sync"
)

// Title is the site title shown by the web page. Changes are pushed to subscribers.
type Title struct {
	mu          sync.RWMutex
	value       string
	subscribers map[chan string]struct{}
}

func NewTitle(initial string) *Title {
	return &Title{
		value:       initial,
		subscribers: make(map[chan string]struct{}),
	}
}

func (t *Title) Get() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Set replaces the title and notifies subscribers. Blank titles are ignored
// and report false.
func (t *Title) Set(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.value = value
	for ch := range t.subscribers {
		notify(ch, value)
	}
	return true
}

// Subscribe returns a channel that receives every new title and a function that
// ends the subscription. A slow subscriber may miss intermediate titles but
// always receives the latest one.
func (t *Title) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 1)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subscribers, ch)
			t.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

func (t *Title) SubscriberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subscribers)
}

// notify replaces a pending value so the channel never blocks the writer.
// Called with t.mu held, which makes it the only sender.
func notify(ch chan string, value string) {
	select {
	case ch <- value:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}
	ch <- value
}
