package services

import (
	"context"
	"sync"
	"time"

	"betinsight-service/apifootball"
	"betinsight-service/logger"
)

const (
	MessageLiveFixtures     = "live_fixtures"
	MessageUpcomingFixtures = "upcoming_fixtures"
)

// Broadcaster 推送消息给已连接的客户端 (web.Hub 实现)
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// FixtureRefresher 由 DashboardService 实现
type FixtureRefresher interface {
	RefreshLive(ctx context.Context) ([]apifootball.Fixture, error)
	RefreshUpcoming(ctx context.Context) ([]apifootball.Fixture, error)
}

// FixturePoller 定时刷新比赛列表
type FixturePoller struct {
	refresher        FixtureRefresher
	broadcaster      Broadcaster
	liveInterval     time.Duration
	upcomingInterval time.Duration

	mu           sync.RWMutex
	lastLive     time.Time
	lastUpcoming time.Time
	failures     int
}

// NewFixturePoller 创建轮询器
func NewFixturePoller(refresher FixtureRefresher, broadcaster Broadcaster, liveInterval, upcomingInterval time.Duration) *FixturePoller {
	return &FixturePoller{
		refresher:        refresher,
		broadcaster:      broadcaster,
		liveInterval:     liveInterval,
		upcomingInterval: upcomingInterval,
	}
}

// Start 立即刷新一次, 然后按间隔刷新直到 ctx 结束
func (p *FixturePoller) Start(ctx context.Context) {
	logger.Printf("[FixturePoller] Started (live every %s, upcoming every %s)", p.liveInterval, p.upcomingInterval)

	p.pollLive(ctx)
	p.pollUpcoming(ctx)

	liveTicker := time.NewTicker(p.liveInterval)
	defer liveTicker.Stop()
	upcomingTicker := time.NewTicker(p.upcomingInterval)
	defer upcomingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Println("[FixturePoller] Stopped")
			return
		case <-liveTicker.C:
			p.pollLive(ctx)
		case <-upcomingTicker.C:
			p.pollUpcoming(ctx)
		}
	}
}

func (p *FixturePoller) pollLive(ctx context.Context) {
	fixtures, err := p.refresher.RefreshLive(ctx)
	if err != nil {
		p.recordFailure()
		return
	}

	p.mu.Lock()
	p.lastLive = time.Now()
	p.mu.Unlock()

	logger.Debugf("[FixturePoller] %d live fixtures", len(fixtures))
	p.broadcast(MessageLiveFixtures, fixtures)
}

func (p *FixturePoller) pollUpcoming(ctx context.Context) {
	fixtures, err := p.refresher.RefreshUpcoming(ctx)
	if err != nil {
		p.recordFailure()
		return
	}

	p.mu.Lock()
	p.lastUpcoming = time.Now()
	p.mu.Unlock()

	logger.Debugf("[FixturePoller] %d upcoming fixtures", len(fixtures))
	p.broadcast(MessageUpcomingFixtures, fixtures)
}

func (p *FixturePoller) broadcast(messageType string, fixtures []apifootball.Fixture) {
	if p.broadcaster == nil {
		return
	}
	p.broadcaster.Broadcast(messageType, fixtures)
}

func (p *FixturePoller) recordFailure() {
	p.mu.Lock()
	p.failures++
	p.mu.Unlock()
}

// PollerStatus 轮询状态
type PollerStatus struct {
	LastLive     time.Time `json:"last_live"`
	LastUpcoming time.Time `json:"last_upcoming"`
	Failures     int       `json:"failures"`
}

// Status 获取轮询状态
func (p *FixturePoller) Status() PollerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PollerStatus{
		LastLive:     p.lastLive,
		LastUpcoming: p.lastUpcoming,
		Failures:     p.failures,
	}
}
