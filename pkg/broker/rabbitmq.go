package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/rideinzw/dispatch/pkg/logger"
)

// Config holds RabbitMQ configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Exchange string
	Enabled  bool
}

// Publisher mirrors dispatch events onto a RabbitMQ topic exchange so
// downstream consumers (analytics, notifications) can read them without
// holding a WebSocket connection
type Publisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
	mu       sync.Mutex
	logger   *logger.Logger
}

// NewPublisher connects to RabbitMQ and declares the exchange
func NewPublisher(cfg Config, log *logger.Logger) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false, logger: log}, nil
	}

	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.User, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp091.Dial(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Info("Connected to RabbitMQ", logger.String("exchange", cfg.Exchange))

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		enabled:  true,
		logger:   log,
	}, nil
}

// Publish sends a JSON-encoded payload with the given routing key.
// It is a no-op when the broker is disabled.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if !p.enabled {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", routingKey, err)
	}
	return nil
}

// IsEnabled returns whether the publisher is connected
func (p *Publisher) IsEnabled() bool {
	return p.enabled
}

// Close shuts down the channel and connection
func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
