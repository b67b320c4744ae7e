package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"betinsight-service/logger"
)

// AMQPBroker 基于 RabbitMQ topic exchange 的 MessageBroker 实现
type AMQPBroker struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewAMQPBroker 连接 AMQP 并声明 exchange
func NewAMQPBroker(url, exchange string) (*AMQPBroker, error) {
	logger.Printf("[AMQPBroker] Connecting (exchange: %s)...", exchange)

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 30 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Println("[AMQPBroker] Connected")

	return &AMQPBroker{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

// Produce 发布消息, routing key 为 Topic
func (b *AMQPBroker) Produce(msg BrokerMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.channel.Publish(
		b.exchange,
		msg.Topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.Key,
			Timestamp:    time.Now(),
			Body:         msg.Value,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}
	return nil
}

// Consume 声明独占队列并绑定到 Topic
func (b *AMQPBroker) Consume(topic string) (<-chan BrokerMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue, err := b.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := b.channel.QueueBind(queue.Name, topic, b.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := b.channel.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	out := make(chan BrokerMessage, 256)
	go func() {
		defer close(out)
		for d := range deliveries {
			out <- BrokerMessage{
				Topic: d.RoutingKey,
				Key:   d.MessageId,
				Value: d.Body,
			}
		}
		logger.Printf("[AMQPBroker] Delivery channel for %s closed", topic)
	}()

	logger.Printf("[AMQPBroker] Consuming topic %s via queue %s", topic, queue.Name)
	return out, nil
}

// Close 关闭通道和连接
func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.channel.Close(); err != nil {
		logger.Errorf("[AMQPBroker] Failed to close channel: %v", err)
	}
	return b.conn.Close()
}
