package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
)

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage читает очередь queueName и обрабатывает не более concurrency
// сообщений одновременно. Возвращает управление сразу; done закрывается, когда
// ctx отменён или канал доставки закрыт и все обработчики завершились.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, concurrency int, handler Handler) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	done := make(chan struct{})
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	go func() {
		defer close(done)
		defer wg.Wait()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					if err := handler(ctx, d.Body); err != nil {
						log.Warn("message handling failed, requeue",
							slog.String("op", op),
							slog.String("queue", queueName),
							sl.Err(err),
						)
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", slog.String("op", op), sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", slog.String("op", op), sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done, nil
}
