package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"betinsight-service/logger"
)

// Notifier 用户可见的通知 (对应前端 toast)
type Notifier interface {
	NotifyFetchFailure(query string, err error) error
	NotifyHighConfidence(event PredictionEvent) error
}

// LarkNotifier 飞书机器人通知器
type LarkNotifier struct {
	webhookURL string
	client     *http.Client
	enabled    bool
}

// NewLarkNotifier 创建飞书通知器
func NewLarkNotifier(webhookURL string) *LarkNotifier {
	enabled := webhookURL != ""
	if enabled {
		logger.Printf("[LarkNotifier] Initialized with webhook")
	} else {
		logger.Printf("[LarkNotifier] Disabled (no webhook URL)")
	}

	return &LarkNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		enabled:    enabled,
	}
}

// LarkMessage 飞书消息结构
type LarkMessage struct {
	MsgType string      `json:"msg_type"`
	Content interface{} `json:"content"`
}

// LarkTextContent 文本消息内容
type LarkTextContent struct {
	Text string `json:"text"`
}

// LarkPostContent 富文本消息内容
type LarkPostContent struct {
	Post LarkPost `json:"post"`
}

type LarkPost struct {
	ZhCn LarkPostLang `json:"zh_cn"`
}

type LarkPostLang struct {
	Title   string          `json:"title"`
	Content [][]LarkElement `json:"content"`
}

type LarkElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text,omitempty"`
	Href string `json:"href,omitempty"`
}

// SendText 发送文本消息
func (n *LarkNotifier) SendText(text string) error {
	if !n.enabled {
		return nil
	}

	return n.send(LarkMessage{
		MsgType: "text",
		Content: LarkTextContent{Text: text},
	})
}

// SendRichText 发送富文本消息
func (n *LarkNotifier) SendRichText(title string, content [][]LarkElement) error {
	if !n.enabled {
		return nil
	}

	return n.send(LarkMessage{
		MsgType: "post",
		Content: LarkPostContent{
			Post: LarkPost{
				ZhCn: LarkPostLang{
					Title:   title,
					Content: content,
				},
			},
		},
	})
}

func (n *LarkNotifier) send(message LarkMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func textLine(format string, args ...interface{}) []LarkElement {
	return []LarkElement{{Tag: "text", Text: fmt.Sprintf(format, args...)}}
}

func timestampLine() []LarkElement {
	return textLine("时间: %s", time.Now().Format("2006-01-02 15:04:05"))
}

// NotifyServiceStart 通知服务启动
func (n *LarkNotifier) NotifyServiceStart(environment string, liveEvery, upcomingEvery time.Duration) error {
	return n.SendRichText("BetInsight Service Started", [][]LarkElement{
		textLine("🚀 服务启动\n"),
		textLine("Environment: %s\n", environment),
		textLine("Live refresh: %s, upcoming refresh: %s\n", liveEvery, upcomingEvery),
		timestampLine(),
	})
}

// NotifyFetchFailure 通知数据拉取失败
func (n *LarkNotifier) NotifyFetchFailure(query string, err error) error {
	return n.SendRichText("Fetch Failed", [][]LarkElement{
		textLine("❌ %s\n", fetchFailureText(query)),
		textLine("原因: %v\n", err),
		timestampLine(),
	})
}

// NotifyHighConfidence 通知高置信度预测
func (n *LarkNotifier) NotifyHighConfidence(event PredictionEvent) error {
	return n.SendRichText("High Confidence Prediction", [][]LarkElement{
		textLine("🎯 %s vs %s\n", event.HomeTeam, event.AwayTeam),
		textLine("%s • %s\n", event.League, event.Kickoff.Format("2006-01-02 15:04")),
		textLine("Labels: %v\n", event.Labels),
		textLine("Home %s / Draw %s / Away %s\n", event.Percent.Home, event.Percent.Draw, event.Percent.Away),
		timestampLine(),
	})
}

// NotifyError 通知错误
func (n *LarkNotifier) NotifyError(component, message string) error {
	return n.SendRichText("Error Alert", [][]LarkElement{
		textLine("❌ 错误\n"),
		textLine("组件: %s\n", component),
		textLine("消息: %s\n", message),
		timestampLine(),
	})
}

// fetchFailureText 与前端 toast 文案保持一致
func fetchFailureText(query string) string {
	switch query {
	case LiveFixturesKey:
		return "Failed to fetch live fixtures"
	case UpcomingFixturesKey:
		return "Failed to fetch upcoming fixtures"
	case headToHeadKey:
		return "Failed to fetch head-to-head statistics"
	case predictionKey:
		return "Failed to fetch prediction"
	default:
		return "Failed to fetch " + query
	}
}
