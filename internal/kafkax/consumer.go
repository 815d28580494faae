package kafkax

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	applog "equiploan/internal/log"
)

// Handler returns nil only when the message was fully processed and its offset may be
// committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r *kafka.Reader
}

func NewConsumer(brokers []string, group, topic string) *Consumer {
	return &Consumer{r: kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})}
}

// Start reads until ctx is cancelled. A failed message is retried with a short backoff
// and its offset is not committed, so delivery is at-least-once.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for attempt := 1; ; attempt++ {
			err := h(ctx, m)
			if err == nil {
				break
			}
			applog.Error(nil, "kafka.consume", err, map[string]any{
				"topic": m.Topic, "offset": m.Offset, "attempt": attempt,
			})
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff(attempt)):
			}
		}
		if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			applog.Error(nil, "kafka.commit", err, map[string]any{"topic": m.Topic, "offset": m.Offset})
		}
	}
}

func backoff(attempt int) time.Duration {
	d := 200 * time.Millisecond * time.Duration(attempt)
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
