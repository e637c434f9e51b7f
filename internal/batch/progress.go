package batch

import (
	"fmt"
	"sync"
)

// Message is one entry on the progress relay between the worker and the
// interactive front end.
type Message interface {
	isMessage()
}

// LogMsg is a human-readable log line.
type LogMsg struct {
	Line string
}

// ProgressMsg reports how many items have reached a terminal state.
type ProgressMsg struct {
	Done  int
	Total int
}

// DoneMsg closes a run with its final summary.
type DoneMsg struct {
	Summary Summary
}

func (LogMsg) isMessage()      {}
func (ProgressMsg) isMessage() {}
func (DoneMsg) isMessage()     {}

// Channel is the one-producer/one-consumer relay from the batch worker to
// the front end: thread-safe, unbounded, ordered. The consumer polls Drain
// on a fixed short interval; no message is ever dropped.
type Channel struct {
	mu    sync.Mutex
	queue []Message
}

func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) Publish(m Message) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, m)
	c.mu.Unlock()
}

// Drain removes and returns all currently queued messages in emission order.
func (c *Channel) Drain() []Message {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	out := c.queue
	c.queue = nil
	c.mu.Unlock()
	return out
}

func (c *Channel) Logf(format string, args ...any) {
	c.Publish(LogMsg{Line: fmt.Sprintf(format, args...)})
}
