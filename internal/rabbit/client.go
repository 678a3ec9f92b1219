package rabbit

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
}

// Publisher is the part of Client the HTTP layer depends on.
type Publisher interface {
	Publish(ctx context.Context, message []byte, delay time.Duration) error
}

func NewRabbit(url, exchange, queue string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		queue:    queue,
	}

	// requires the rabbitmq_delayed_message_exchange plugin
	args := amqp.Table{"x-delayed-type": "direct"}
	if err := ch.ExchangeDeclare(exchange, "x-delayed-message", true, false, false, false, args); err != nil {
		client.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("bind queue %s: %w", queue, err)
	}

	zlog.Logger.Info().Str("exchange", exchange).Str("queue", queue).Msg("RabbitMQ initialized")
	return client, nil
}

func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	zlog.Logger.Info().Msg("RabbitMQ connection closed")
}

// Publish sends message to the delayed exchange; it is routed to the queue after delay.
func (c *Client) Publish(ctx context.Context, message []byte, delay time.Duration) error {
	headers := amqp.Table{}
	if delay > 0 {
		headers["x-delay"] = delayMillis(delay)
	}

	err := c.channel.PublishWithContext(ctx, c.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         message,
		Timestamp:    time.Now(),
		Headers:      headers,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", c.exchange, err)
	}
	zlog.Logger.Debug().Str("exchange", c.exchange).Dur("delay", delay).Msg("message published")
	return nil
}

// Consume runs handler for every delivery until ctx is done. Failed deliveries are requeued.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	msgs, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	go func() {
		for d := range msgs {
			if err := handler(ctx, d.Body); err != nil {
				zlog.Logger.Warn().Err(err).Msg("failed to process message")
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}()

	zlog.Logger.Info().Str("queue", c.queue).Msg("started consuming")
	return nil
}

// delayMillis clamps to the int32 range accepted by the x-delay header.
func delayMillis(d time.Duration) int32 {
	ms := d.Milliseconds()
	if ms > int64(^uint32(0)>>1) {
		ms = int64(^uint32(0) >> 1)
	}
	return int32(ms)
}
