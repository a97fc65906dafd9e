package amqpbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/events"
)

// changeMessage is the payload forwarded to AMQP for each bus signal.
// Consumers (dashboards, log views) treat it as a refresh hint and re-read
// whatever they display; no domain data travels on the wire.
type changeMessage struct {
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
}

// Bridge forwards in-process bus signals to a RabbitMQ fanout exchange so
// views in other processes can refresh themselves.
type Bridge struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	log          zerolog.Logger
	unsubs       []func()
}

// New dials AMQP and declares the fanout exchange.
func New(url, exchangeName string, log zerolog.Logger) (*Bridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"fanout",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Bridge{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		log:          log,
	}, nil
}

// Attach subscribes the bridge to the change topics on the bus.
func (b *Bridge) Attach(bus *events.Bus) {
	for _, topic := range []string{events.TopicExpensesChanged, events.TopicCategoriesChanged} {
		unsub := bus.Subscribe(topic, func(topic string) {
			if err := b.publish(context.Background(), topic); err != nil {
				b.log.Error().Err(err).Str("topic", topic).Msg("Failed to forward change signal to AMQP")
			}
		})
		b.unsubs = append(b.unsubs, unsub)
	}
}

func (b *Bridge) publish(ctx context.Context, topic string) error {
	body, err := json.Marshal(changeMessage{Topic: topic, Timestamp: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName, // exchange
		"",             // routing key (fanout ignores it)
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	b.log.Debug().Str("topic", topic).Str("exchange", b.exchangeName).Msg("Forwarded change signal")
	return nil
}

// Close detaches from the bus and tears down the AMQP connection.
func (b *Bridge) Close() error {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil

	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
