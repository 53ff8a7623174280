package queue

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte) error) error
}

// InMemoryQueue is an in-process queue with retry, used when no broker is
// configured. Handlers run detached from the publisher, so a webhook ack
// never waits on processing.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload []byte) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload []byte) error),
	}
}

// job wraps a message payload with retry info
type job struct {
	payload    []byte
	retryCount int
	maxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload []byte) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	j := job{
		payload:    payload,
		retryCount: 0,
		maxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, j)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload []byte) error, j job) {
	for j.retryCount <= j.maxRetries {
		err := handler(j.payload)
		if err == nil {
			return // ACK
		}

		j.retryCount++
		log.Printf("⚠️ Job failed (attempt %d/%d): %v\n", j.retryCount, j.maxRetries, err)

		if j.retryCount > j.maxRetries {
			log.Printf("Job permanently failed after %d attempts\n", j.maxRetries)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(j.retryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// EventHandler consumes raw queue payloads.
type EventHandler interface {
	Handle(payload []byte) error
}

// EventsTopic carries classified webhook events from the ack path to the
// background processor.
const EventsTopic = "email_events"

// StartEventSubscriber wires the processor to the events topic.
func StartEventSubscriber(q Queue, h EventHandler) {
	go func() {
		err := q.Subscribe(EventsTopic, func(payload []byte) error {
			return h.Handle(payload)
		})
		if err != nil {
			log.Println("⚠️ Failed to start subscriber for", EventsTopic, ":", err)
		}
	}()
}
