package mailer

import (
	"context"
	"log"
	"sync"
	"time"
)

const sendTimeout = 30 * time.Second

// Queue hands messages to a single background sender.
type Queue struct {
	sender Sender
	jobs   chan Message
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts the sender goroutine with a buffer of size messages.
func NewQueue(sender Sender, size int) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{
		sender: sender,
		jobs:   make(chan Message, size),
		done:   make(chan struct{}),
	}
	go q.worker()
	return q
}

// Enqueue schedules msg without blocking. It reports false when the
// message was dropped because the queue is full or closed.
func (q *Queue) Enqueue(msg Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		log.Printf("mail queue closed, dropping message to %s", msg.To)
		return false
	}

	select {
	case q.jobs <- msg:
		return true
	default:
		log.Printf("mail queue full, dropping message to %s", msg.To)
		return false
	}
}

// Close stops accepting messages and waits until queued ones are sent or ctx ends.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker sends messages until the queue is closed and drained.
func (q *Queue) worker() {
	defer close(q.done)
	for msg := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := q.sender.Send(ctx, msg); err != nil {
			log.Printf("send mail to %s: %v", msg.To, err)
		}
		cancel()
	}
}
