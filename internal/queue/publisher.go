package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/streamhub/internal/config"
	"github.com/iliyamo/streamhub/internal/metrics"
)

// Discard drops every event.  It is used when EVENTS_ENABLED is off.
type Discard struct{}

func (Discard) Publish(EngagementEvent) {}

// Publisher forwards events to a durable RabbitMQ queue from a single
// background goroutine.  Publish never blocks the caller: when the buffer
// is full or the broker is down the event is dropped and counted.
type Publisher struct {
	url    string
	queue  string
	log    *slog.Logger
	events chan EngagementEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewPublisher starts the delivery goroutine.  Call Close to drain it.
func NewPublisher(cfg config.QueueConfig, logger *slog.Logger) *Publisher {
	if cfg.Buffer < 1 {
		cfg.Buffer = 1
	}
	p := &Publisher{
		url:    cfg.URL,
		queue:  cfg.Queue,
		log:    logger.With(slog.String("component", "event-publisher")),
		events: make(chan EngagementEvent, cfg.Buffer),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish enqueues the event for delivery.
func (p *Publisher) Publish(ev EngagementEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case p.events <- ev:
	default:
		metrics.EventsDropped.Inc()
	}
}

// Close stops accepting events, delivers what is buffered and waits for the
// goroutine to exit or ctx to expire.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) run() {
	defer close(p.done)

	var (
		conn    *amqp.Connection
		ch      *amqp.Channel
		retryAt time.Time
		backoff = time.Second
	)
	disconnect := func() {
		if ch != nil {
			_ = ch.Close()
		}
		if conn != nil {
			_ = conn.Close()
		}
		ch, conn = nil, nil
	}
	defer disconnect()

	for ev := range p.events {
		if ch == nil {
			if time.Now().Before(retryAt) {
				metrics.EventsDropped.Inc()
				continue
			}
			var err error
			conn, ch, err = p.connect()
			if err != nil {
				p.log.Warn("rabbitmq connect failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
				retryAt = time.Now().Add(backoff)
				if backoff < 30*time.Second {
					backoff *= 2
				}
				metrics.EventsDropped.Inc()
				continue
			}
			backoff = time.Second // reset after successful connect
		}
		if err := p.publish(ch, ev); err != nil {
			p.log.Warn("rabbitmq publish failed", slog.String("type", ev.Type), slog.Any("error", err))
			metrics.EventsDropped.Inc()
			disconnect()
		}
	}
}

func (p *Publisher) connect() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	return conn, ch, nil
}

func (p *Publisher) publish(ch *amqp.Channel, ev EngagementEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // store on disk
			Timestamp:    ev.OccurredAt,
			Type:         ev.Type,
			Body:         body,
		})
}
