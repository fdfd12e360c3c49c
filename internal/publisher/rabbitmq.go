package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"sales_report/internal/domain"
)

const eventDatasetReplaced = "dataset.replaced"

var errNacked = errors.New("broker rejected message")

// RabbitMQ publishes dataset events to a topic exchange and waits for the broker to
// confirm each one.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *zap.Logger

	// mu keeps a publish and its confirmation paired on the channel.
	mu sync.Mutex
}

// Config describes the event topology. QueueName is optional: when set, a durable
// queue is bound to RoutingKey so events are retained before any consumer attaches.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

type DatasetMessage struct {
	Event     string                 `json:"event"`
	Dataset   domain.DatasetReplaced `json:"dataset"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewRabbitMQ(cfg Config, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	logger.Info("connected to rabbitmq",
		zap.String("exchange", cfg.Exchange),
		zap.String("routing_key", cfg.RoutingKey),
		zap.String("queue", cfg.QueueName),
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	if cfg.QueueName == "" {
		return nil
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}
	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	return nil
}

// PublishDatasetReplaced announces a committed dataset load and returns once the
// broker has confirmed it.
func (r *RabbitMQ) PublishDatasetReplaced(ctx context.Context, event domain.DatasetReplaced) error {
	body, err := json.Marshal(DatasetMessage{
		Event:     eventDatasetReplaced,
		Dataset:   event,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.RunID, err)
	}

	confirmation, err := r.channel.PublishWithDeferredConfirmWithContext(ctx, r.exchange, r.routingKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         eventDatasetReplaced,
			MessageId:    event.RunID,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("publish %s: %w", event.RunID, errNacked)
	}

	r.logger.Debug("published dataset event",
		zap.String("run_id", event.RunID),
		zap.Int("records", event.Records),
	)
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
