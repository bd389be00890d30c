// Package service publishes provider domain events to RabbitMQ.  Publishing
// is best effort: errors are logged and returned, and handlers ignore them so
// a broker outage never fails a committed write.
package service

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/provider-sync/internal/queue"
)

// Publisher is what handlers depend on.
type Publisher interface {
    Publish(ctx context.Context, ev q.ProviderEvent) error
}

// AMQPPublisher keeps one connection and reopens it after a failure.
type AMQPPublisher struct {
    url  string
    mu   sync.Mutex
    conn *amqp.Connection
}

func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{url: url}
}

// Publish sends ev to q.EventsQueue as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.ProviderEvent) error {
    if ev.OccurredAt == "" {
        ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
    }
    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channelLocked()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.EventsQueue, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }
    pub := amqp.Publishing{
        ContentType:   "application/json",
        DeliveryMode:  amqp.Persistent, // store on disk
        Timestamp:     time.Now().UTC(),
        CorrelationId: ev.CorrelationID,
        Type:          string(ev.Type),
        Body:          body,
    }
    if err := ch.PublishWithContext(ctx, "", q.EventsQueue, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish %s failed: %v", ev.Type, err)
        return err
    }
    return nil
}

func (p *AMQPPublisher) channelLocked() (*amqp.Channel, error) {
    if p.conn == nil || p.conn.IsClosed() {
        conn, err := amqp.Dial(p.url)
        if err != nil {
            return nil, err
        }
        p.conn = conn
    }
    ch, err := p.conn.Channel()
    if err != nil {
        _ = p.conn.Close()
        p.conn = nil
        return nil, err
    }
    return ch, nil
}

// Close drops the broker connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.conn == nil {
        return nil
    }
    err := p.conn.Close()
    p.conn = nil
    return err
}

// Discard drops every event; used when no broker is configured.
type Discard struct{}

func (Discard) Publish(context.Context, q.ProviderEvent) error { return nil }
