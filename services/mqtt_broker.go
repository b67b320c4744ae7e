package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"betinsight-service/logger"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
)

// MQTTBroker 基于 MQTT 的 MessageBroker 实现
// 消息发布到 <prefix>/<topic>/<key>
type MQTTBroker struct {
	client mqtt.Client
	prefix string

	mu     sync.Mutex
	subs   []chan BrokerMessage
	closed bool
}

// NewMQTTBroker 连接 MQTT broker
func NewMQTTBroker(broker, prefix string) (*MQTTBroker, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("betinsight_%d", time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Errorf("[MQTTBroker] Connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Printf("[MQTTBroker] Connected to %s", broker)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return &MQTTBroker{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
	}, nil
}

func (b *MQTTBroker) mqttTopic(topic, key string) string {
	if key == "" {
		key = "_"
	}
	return fmt.Sprintf("%s/%s/%s", b.prefix, topic, key)
}

// Produce 发布消息
func (b *MQTTBroker) Produce(msg BrokerMessage) error {
	token := b.client.Publish(b.mqttTopic(msg.Topic, msg.Key), mqttQoS, false, msg.Value)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}
	return nil
}

// Consume 订阅 <prefix>/<topic>/#
func (b *MQTTBroker) Consume(topic string) (<-chan BrokerMessage, error) {
	out := make(chan BrokerMessage, 256)
	filter := fmt.Sprintf("%s/%s/#", b.prefix, topic)

	token := b.client.Subscribe(filter, mqttQoS, func(_ mqtt.Client, m mqtt.Message) {
		key := m.Topic()[strings.LastIndex(m.Topic(), "/")+1:]

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return
		}
		select {
		case out <- BrokerMessage{Topic: topic, Key: key, Value: m.Payload()}:
		default:
			logger.Warnf("[MQTTBroker] Consumer channel for %s full. Message dropped.", topic)
		}
	})
	token.Wait()
	if err := token.Error(); err != nil {
		close(out)
		return nil, fmt.Errorf("failed to subscribe to %s: %w", filter, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, out)
	b.mu.Unlock()

	logger.Printf("[MQTTBroker] Subscribed to %s", filter)
	return out, nil
}

// Close 断开连接并关闭订阅通道
func (b *MQTTBroker) Close() error {
	b.client.Disconnect(250)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	return nil
}
