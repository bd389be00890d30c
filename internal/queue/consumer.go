package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultLogPath is where StartEventConsumer appends one line per event.
var DefaultLogPath = filepath.Join("logs", "provider.log")

// StartEventConsumer connects to the broker, declares EventsQueue (durable)
// and appends each message to logPath.  It reconnects with backoff until ctx
// is cancelled, which is the only way it returns.
func StartEventConsumer(ctx context.Context, url, logPath string) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("event-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, logPath)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("event-consumer: consume loop ended: %v; reconnecting", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("event-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(EventsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := appendEvent(logPath, d.Body); err != nil {
                log.Printf("event-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func appendEvent(logPath string, body []byte) error {
    var ev ProviderEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    return FormatEvent(f, ev)
}

// FormatEvent writes ev as one human-friendly line.
func FormatEvent(w io.Writer, ev ProviderEvent) error {
    line := fmt.Sprintf("[%s] %s | provider_id=%d | entity=%s", ev.OccurredAt, ev.Type, ev.ProviderID, ev.EntityID)
    if ev.Status != "" {
        line += " | status=" + ev.Status
    }
    if ev.Remaining != nil {
        line += fmt.Sprintf(" | remaining=%d", *ev.Remaining)
    }
    if ev.CorrelationID != "" {
        line += " | correlation_id=" + ev.CorrelationID
    }
    if _, err := io.WriteString(w, line+"\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
