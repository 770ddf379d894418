package events

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPPublisher publishes outbox events to a topic exchange; the routing key is the event type.
type AMQPPublisher struct {
	ch       Channel
	exchange string
	timeout  time.Duration
}

func NewAMQPPublisher(ch Channel, exchange string, timeout time.Duration) *AMQPPublisher {
	return &AMQPPublisher{
		ch:       ch,
		exchange: exchange,
		timeout:  timeout,
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, evt *domain.OutboxEvent) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		string(evt.EventType),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    evt.ID.String(),
			Timestamp:    evt.CreatedAt,
			Type:         string(evt.EventType),
			Body:         evt.Payload,
		},
	)
}

// DeclareTopology declares the exchange and the notification queue bound to every
// shift-assignment event.
func DeclareTopology(ch *amqp.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	return ch.QueueBind(q.Name, "shift_assignment.*", exchange, false, nil)
}
