package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"betinsight-service/logger"
	"betinsight-service/services"
)

const (
	MessageConnected      = "connected"
	MessageHighConfidence = "high_confidence"
)

// WSMessage WebSocket消息结构
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Client WebSocket客户端
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	mu      sync.RWMutex
	filters map[string]bool // 消息类型过滤器
}

// Hub WebSocket Hub
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *WSMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub 创建新的Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *WSMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Printf("[Hub] Client registered. Total clients: %d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Printf("[Hub] Client unregistered. Total clients: %d", total)

		case message := <-h.broadcast:
			data := marshalMessage(message)
			h.mu.Lock()
			for client := range h.clients {
				if !client.shouldReceive(message.Type) {
					continue
				}

				select {
				case client.send <- data:
				default:
					// 客户端太慢, 断开
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast 广播消息 (实现 services.Broadcaster)
func (h *Hub) Broadcast(messageType string, data interface{}) {
	msg := &WSMessage{
		Type:      messageType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}

	select {
	case h.broadcast <- msg:
	default:
		logger.Warnf("[Hub] Broadcast queue full, dropping %s", messageType)
	}
}

// ConsumeEvents 把消息总线上的高置信度事件转发给客户端, 直到 ch 关闭
func (h *Hub) ConsumeEvents(ch <-chan services.BrokerMessage) {
	for msg := range ch {
		var event services.PredictionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Errorf("[Hub] Failed to decode event %s: %v", msg.Key, err)
			continue
		}
		h.Broadcast(MessageHighConfidence, event)
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func marshalMessage(message *WSMessage) []byte {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("[Hub] Failed to marshal message: %v", err)
		return []byte("{}")
	}
	return data
}

// shouldReceive 没有过滤器时接收所有消息
func (c *Client) shouldReceive(messageType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.filters) == 0 {
		return true
	}
	return c.filters[messageType]
}

// readPump 读取客户端消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("[Hub] WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump 向客户端写入消息
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// clientMessage 客户端发送的订阅消息
type clientMessage struct {
	Type         string   `json:"type"`
	MessageTypes []string `json:"message_types"`
}

// handleMessage 处理订阅/取消订阅
func (c *Client) handleMessage(message []byte) {
	var msg clientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Errorf("[Hub] Failed to unmarshal client message: %v", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		filters := make(map[string]bool, len(msg.MessageTypes))
		for _, t := range msg.MessageTypes {
			filters[t] = true
		}
		c.mu.Lock()
		c.filters = filters
		c.mu.Unlock()
		logger.Debugf("[Hub] Client subscribed to %v", msg.MessageTypes)

	case "unsubscribe":
		c.mu.Lock()
		c.filters = make(map[string]bool)
		c.mu.Unlock()
		logger.Debugf("[Hub] Client unsubscribed")
	}
}
