// Package bus abstracts topic-based publish/subscribe with per-message key,
// at-least-once delivery and consumer-group semantics. No other package
// depends on a concrete transport.
package bus

import (
	"context"
	"fmt"
)

type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// Subscription is a single-worker stream of deliveries for one consumer
// group. Fetch blocks until a message arrives or ctx is cancelled; Commit
// acknowledges the most recently fetched message. Redelivery after a missed
// commit is expected; consumers dedup by event id.
type Subscription interface {
	Fetch(ctx context.Context) (Message, error)
	Commit(ctx context.Context, msg Message) error
	Close() error
}

type Bus interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(topics []string, group string) (Subscription, error)
	Close() error
}

type Config struct {
	Kind      string // kafka | rabbit | memory
	Brokers   []string
	ClientID  string
	RabbitURL string
}

// New selects a transport adapter by configuration.
func New(cfg Config) (Bus, error) {
	switch cfg.Kind {
	case "kafka":
		return NewKafkaBus(cfg.Brokers, cfg.ClientID), nil
	case "rabbit":
		return NewRabbitBus(cfg.RabbitURL)
	case "memory":
		return NewInMemoryBus(), nil
	default:
		return nil, fmt.Errorf("unknown bus kind %q", cfg.Kind)
	}
}
