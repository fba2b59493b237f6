package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// TopicDeliveries carries delivery-record IDs from the dispatcher to
// whichever subscriber performs the provider send.
const TopicDeliveries = "prompt_sends"

// Queue interface
type Queue interface {
	Publish(topic string, payload string) error
	Subscribe(topic string, handler func(payload string) error) error
}

// ====================== In-memory queue ======================

// InMemoryQueue processes each topic serially through one worker
// goroutine, so deliveries for a journal go out in order and a slow
// send never runs concurrently with another on the same topic.
type InMemoryQueue struct {
	mu       sync.Mutex
	topics   map[string]chan job
	handlers map[string]func(payload string) error
}

type job struct {
	payload    string
	handler    func(payload string) error
	maxRetries int
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		topics:   make(map[string]chan job),
		handlers: make(map[string]func(payload string) error),
	}
}

func (q *InMemoryQueue) channel(topic string) chan job {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.topics[topic]
	if !ok {
		ch = make(chan job, 256)
		q.topics[topic] = ch
		go q.worker(ch)
	}
	return ch
}

func (q *InMemoryQueue) worker(ch chan job) {
	for j := range ch {
		for attempt := 0; ; attempt++ {
			err := j.handler(j.payload)
			if err == nil {
				break
			}
			if attempt >= j.maxRetries {
				log.Printf("⚠️ job permanently failed after %d attempts: %s, error: %v\n", attempt+1, j.payload, err)
				break
			}
			log.Printf("⚠️ job failed (attempt %d/%d): %s, error: %v\n", attempt+1, j.maxRetries, j.payload, err)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
		}
	}
}

// Publish hands the payload to the topic's worker. Fails if nothing has
// subscribed yet.
func (q *InMemoryQueue) Publish(topic string, payload string) error {
	q.mu.Lock()
	handler := q.handlers[topic]
	q.mu.Unlock()
	if handler == nil {
		return fmt.Errorf("no subscriber for topic %s", topic)
	}
	q.channel(topic) <- job{payload: payload, handler: handler, maxRetries: 3}
	return nil
}

// Subscribe registers the single handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload string) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = handler
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)

// ====================== AMQP queue ======================

// DeliveryJob is the wire envelope published to RabbitMQ.
type DeliveryJob struct {
	DeliveryRecordID string `json:"delivery_record_id"`
}

// AMQPQueue publishes and consumes jobs over RabbitMQ for multi-process
// deployments (cmd/worker consumes).
type AMQPQueue struct {
	Channel *amqp.Channel
}

func NewAMQPQueue(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return &AMQPQueue{Channel: ch}, nil
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.Channel.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AMQPQueue) Publish(topic string, payload string) error {
	if _, err := q.declare(topic); err != nil {
		return err
	}
	body, err := json.Marshal(DeliveryJob{DeliveryRecordID: payload})
	if err != nil {
		return err
	}
	return q.Channel.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
}

// maxDeliveryAttempts bounds how many times a failed job is
// republished before it is dropped.
const maxDeliveryAttempts = 3

// nextRetry reads the x-retry-count header and returns the count the
// next attempt should carry. ok is false once the bound is exhausted.
// A broker requeue keeps the original headers, so failed jobs are
// republished with the incremented count instead of nacked.
func nextRetry(headers amqp.Table) (count int32, ok bool) {
	var done int32
	if v, isInt := headers["x-retry-count"].(int32); isInt {
		done = v
	}
	if done >= maxDeliveryAttempts {
		return 0, false
	}
	return done + 1, true
}

func (q *AMQPQueue) Subscribe(topic string, handler func(payload string) error) error {
	declared, err := q.declare(topic)
	if err != nil {
		return err
	}
	msgs, err := q.Channel.Consume(
		declared.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			var j DeliveryJob
			if err := json.Unmarshal(d.Body, &j); err != nil {
				log.Println("⚠️ invalid job:", err)
				d.Ack(false)
				continue
			}
			if err := handler(j.DeliveryRecordID); err != nil {
				log.Println("⚠️ job failed:", err)
				count, retry := nextRetry(d.Headers)
				if retry {
					if pubErr := q.Channel.Publish("", declared.Name, false, false, amqp.Publishing{
						ContentType:  "application/json",
						Body:         d.Body,
						DeliveryMode: amqp.Persistent,
						Headers:      amqp.Table{"x-retry-count": count},
					}); pubErr != nil {
						log.Println("⚠️ failed to republish job:", pubErr)
						d.Nack(false, true) // fall back to a broker requeue
						continue
					}
				} else {
					log.Printf("⚠️ job permanently failed after %d retries: %s, error: %v\n", maxDeliveryAttempts, j.DeliveryRecordID, err)
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

var _ Queue = (*AMQPQueue)(nil)
