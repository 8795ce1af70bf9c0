package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Топология рассылок.
const (
	ExchangeBroadcasts    = "broadcasts"
	QueueBroadcastDeliver = "broadcast.deliver"
	RoutingKeyDeliver     = "deliver"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// BroadcastQueues очереди обменника ExchangeBroadcasts.
func BroadcastQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueBroadcastDeliver, RoutingKey: RoutingKeyDeliver},
	}
}

// SetupChannel открывает канал с prefetch, объявляет direct-обменник exchange
// и привязывает к нему durable-очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig, prefetch int) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
		}
	}

	err = ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			exchange,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
