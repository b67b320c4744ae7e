package services

import (
	"errors"
	"fmt"
	"time"

	"betinsight-service/apifootball"
)

// BrokerMessage 定义了在 Broker 中传输的消息结构
type BrokerMessage struct {
	Topic string
	Key   string // 通常是 fixture ID
	Value []byte // JSON 消息体
}

// MessageBroker 定义了消息分发的抽象接口
type MessageBroker interface {
	// Produce 发送消息到指定的 Topic
	Produce(msg BrokerMessage) error
	// Consume 订阅指定的 Topic，返回一个消息通道
	Consume(topic string) (<-chan BrokerMessage, error)
	// Close 关闭 Broker 连接
	Close() error
}

const (
	EventHighConfidence = "high_confidence"
)

var errBrokerClosed = errors.New("broker closed")

// GetTopicName 根据事件类型获取 Topic 名称
func GetTopicName(eventType string) string {
	return fmt.Sprintf("betinsight-%s", eventType)
}

// PredictionEvent 分类后的预测事件
type PredictionEvent struct {
	FixtureID      int                 `json:"fixture_id"`
	HomeTeam       string              `json:"home_team"`
	AwayTeam       string              `json:"away_team"`
	League         string              `json:"league"`
	Kickoff        time.Time           `json:"kickoff"`
	Labels         []string            `json:"labels"`
	HighConfidence bool                `json:"high_confidence"`
	Percent        apifootball.Percent `json:"percent"`
	Advice         string              `json:"advice"`
	ClassifiedAt   time.Time           `json:"classified_at"`
}
