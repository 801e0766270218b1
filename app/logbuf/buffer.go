// Package logbuf keeps the most recent log lines in memory so they can be
// served over HTTP.
package logbuf

import (
	"bytes"
	"strings"
	"sync"
)

const DefaultCapacity = 1000

// Buffer is a bounded ring of log lines. When full, the oldest line is dropped.
// It implements io.Writer and is safe for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	lines   []string
	start   int
	count   int
	partial []byte
}

func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{lines: make([]string, capacity)}
}

// Write splits p into lines. A trailing fragment without newline is kept until
// the rest of the line arrives.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := p
	if len(b.partial) > 0 {
		data = append(b.partial, p...)
		b.partial = nil
	}

	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.add(strings.TrimRight(string(data[:i]), "\r"))
		data = data[i+1:]
	}

	if len(data) > 0 {
		b.partial = append([]byte(nil), data...)
	}

	return len(p), nil
}

func (b *Buffer) add(line string) {
	capacity := len(b.lines)
	if b.count < capacity {
		b.lines[(b.start+b.count)%capacity] = line
		b.count++
		return
	}
	b.lines[b.start] = line
	b.start = (b.start + 1) % capacity
}

// Lines returns a copy of the buffered lines, oldest first
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.lines[(b.start+i)%len(b.lines)]
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
