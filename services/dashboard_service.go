package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"betinsight-service/apifootball"
	"betinsight-service/logger"
	"betinsight-service/pkg/common"
	"betinsight-service/prediction"
)

const (
	LiveFixturesKey     = "liveFixtures"
	UpcomingFixturesKey = "upcomingFixtures"
	predictionKey       = "prediction"
	headToHeadKey       = "h2h"

	overviewListSize = 3
	headToHeadLast   = 5
)

// FootballAPI 数据源接口 (apifootball.Client 实现)
type FootballAPI interface {
	GetLiveFixtures(ctx context.Context) ([]apifootball.Fixture, error)
	GetUpcomingFixtures(ctx context.Context, date time.Time) ([]apifootball.Fixture, error)
	GetHeadToHead(ctx context.Context, homeTeamID, awayTeamID, last int) (*apifootball.H2H, error)
	GetPrediction(ctx context.Context, fixtureID int) (*apifootball.Prediction, error)
}

// DashboardService 组装三个页面所需的数据
type DashboardService struct {
	api        FootballAPI
	cache      *QueryCache
	classifier *prediction.Classifier
	notifier   Notifier

	store  PredictionRecorder
	broker MessageBroker

	location *time.Location
	now      func() time.Time
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(api FootballAPI, cache *QueryCache, classifier *prediction.Classifier, notifier Notifier) *DashboardService {
	return &DashboardService{
		api:        api,
		cache:      cache,
		classifier: classifier,
		notifier:   notifier,
		location:   time.Local,
		now:        time.Now,
	}
}

// SetStore 设置预测快照存储 (可选)
func (s *DashboardService) SetStore(store PredictionRecorder) {
	s.store = store
}

// SetBroker 设置事件分发 (可选)
func (s *DashboardService) SetBroker(broker MessageBroker) {
	s.broker = broker
}

// SetLocation 设置"今日"判断所用时区
func (s *DashboardService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// Now 当前时间 (服务时区)
func (s *DashboardService) Now() time.Time {
	return s.now().In(s.location)
}

// RefreshLive 强制刷新进行中的比赛
func (s *DashboardService) RefreshLive(ctx context.Context) ([]apifootball.Fixture, error) {
	fixtures, err := s.api.GetLiveFixtures(ctx)
	if err != nil {
		return nil, s.fetchFailed(LiveFixturesKey, err)
	}
	if err := s.cache.Put(ctx, LiveFixturesKey, fixtures); err != nil {
		logger.Warnf("[Dashboard] Failed to cache live fixtures: %v", err)
	}
	return fixtures, nil
}

// RefreshUpcoming 强制刷新今日未开赛的比赛
func (s *DashboardService) RefreshUpcoming(ctx context.Context) ([]apifootball.Fixture, error) {
	fixtures, err := s.api.GetUpcomingFixtures(ctx, s.Now())
	if err != nil {
		return nil, s.fetchFailed(UpcomingFixturesKey, err)
	}
	if err := s.cache.Put(ctx, UpcomingFixturesKey, fixtures); err != nil {
		logger.Warnf("[Dashboard] Failed to cache upcoming fixtures: %v", err)
	}
	return fixtures, nil
}

// LiveFixtures 进行中的比赛, 失败时返回空列表
func (s *DashboardService) LiveFixtures(ctx context.Context) []apifootball.Fixture {
	fixtures, err := FetchQuery(ctx, s.cache, LiveFixturesKey, s.api.GetLiveFixtures)
	if err != nil {
		s.fetchFailed(LiveFixturesKey, err)
		return []apifootball.Fixture{}
	}
	return fixtures
}

// UpcomingFixtures 今日未开赛的比赛, 失败时返回空列表
func (s *DashboardService) UpcomingFixtures(ctx context.Context) []apifootball.Fixture {
	fixtures, err := FetchQuery(ctx, s.cache, UpcomingFixturesKey, func(ctx context.Context) ([]apifootball.Fixture, error) {
		return s.api.GetUpcomingFixtures(ctx, s.Now())
	})
	if err != nil {
		s.fetchFailed(UpcomingFixturesKey, err)
		return []apifootball.Fixture{}
	}
	return fixtures
}

// Overview 仪表盘首页
func (s *DashboardService) Overview(ctx context.Context, fixtureID int) (*OverviewView, error) {
	live := s.LiveFixtures(ctx)
	upcoming := s.UpcomingFixtures(ctx)

	view := &OverviewView{
		Title:    "Sports Analysis Dashboard",
		Subtitle: "Real-time insights and predictions for your betting strategy",
		Live:     fixtureCards(live, overviewListSize, s.location),
		Upcoming: fixtureCards(upcoming, overviewListSize, s.location),
	}

	if fixtureID <= 0 {
		return view, nil
	}

	pv, err := s.Prediction(ctx, fixtureID)
	if errors.Is(err, common.ErrFixtureNotFound) {
		return nil, err
	}
	if err != nil {
		view.Notice = fetchFailureText(predictionKey)
		return view, nil
	}

	p := pv.Prediction
	view.Selected = &pv.Fixture
	view.Metrics = []MetricCard{
		{Title: "Home Win", Value: p.Predictions.Percent.Home, Trend: p.Comparison.Form.Home},
		{Title: "Draw", Value: p.Predictions.Percent.Draw, Trend: p.Predictions.Advice},
		{Title: "Away Win", Value: p.Predictions.Percent.Away, Trend: p.Comparison.Form.Away},
	}

	winner := ""
	if p.Predictions.Winner != nil {
		winner = p.Predictions.Winner.Name
	}
	view.Analysis = &MatchAnalysis{
		Winner:      winner,
		WinOrDraw:   yesNo(p.Predictions.WinOrDraw),
		UnderOver:   p.Predictions.UnderOver,
		Advice:      p.Predictions.Advice,
		HomeAttack:  p.Comparison.Att.Home,
		AwayAttack:  p.Comparison.Att.Away,
		HomeDefense: p.Comparison.Def.Home,
		AwayDefense: p.Comparison.Def.Away,
	}

	return view, nil
}

// Soccer 今日未开赛比赛及高置信度预测
func (s *DashboardService) Soccer(ctx context.Context, fixtureID int) (*SoccerView, error) {
	now := s.Now()
	today := prediction.FilterTodayUpcoming(s.UpcomingFixtures(ctx), now)

	view := &SoccerView{
		Title:    "Soccer Predictions",
		Subtitle: "High-accuracy predictions for today's upcoming matches",
		Matches:  make([]FixtureCard, 0, len(today)),
	}
	for _, f := range today {
		card := newFixtureCard(f, s.location)
		card.Status = "Upcoming"
		view.Matches = append(view.Matches, card)
	}

	if fixtureID <= 0 {
		return view, nil
	}

	pv, err := s.Prediction(ctx, fixtureID)
	if errors.Is(err, common.ErrFixtureNotFound) {
		return nil, err
	}
	if err != nil {
		view.Notice = fetchFailureText(predictionKey)
		return view, nil
	}

	for i := range view.Matches {
		if view.Matches[i].ID == fixtureID {
			view.Matches[i].Labels = pv.Labels
		}
	}

	if pv.HighConfidence {
		p := pv.Prediction
		card := &ConfidenceCard{
			MatchWinner:   pv.WinnerLabel,
			GoalsVerdict:  pv.GoalsVerdict,
			ExpectedGoals: fmt.Sprintf("%s - %s", p.Predictions.Goals.Home, p.Predictions.Goals.Away),
			Percent:       p.Predictions.Percent,
		}
		if p.Predictions.Winner != nil {
			card.WinnerComment = p.Predictions.Winner.Comment
		}
		view.HighConfidence = card
	}

	return view, nil
}

// Placeholder Spina Zonke 页面
func (s *DashboardService) Placeholder() *PlaceholderView {
	return &PlaceholderView{
		Title:    "Spina Zonke Games",
		Subtitle: "Coming Soon",
		Heading:  "Feature Coming Soon",
		Message:  "We're working on bringing you exciting gaming predictions and analysis. Stay tuned!",
	}
}

// Prediction 获取并分类某场比赛的预测
func (s *DashboardService) Prediction(ctx context.Context, fixtureID int) (*PredictionView, error) {
	fixture, err := s.findFixture(ctx, fixtureID)
	if err != nil {
		return nil, err
	}

	key := QueryKey(predictionKey, fixtureID)

	var p *apifootball.Prediction
	cached, err := s.cache.Lookup(ctx, key, &p)
	if err != nil {
		logger.Warnf("[Dashboard] Prediction cache lookup failed: %v", err)
	}
	if !cached || p == nil {
		cached = false
		p, err = s.api.GetPrediction(ctx, fixtureID)
		if err != nil {
			return nil, s.fetchFailed(predictionKey, err)
		}
		if err := s.cache.Put(ctx, key, p); err != nil {
			logger.Warnf("[Dashboard] Failed to cache prediction %d: %v", fixtureID, err)
		}
	}

	view := &PredictionView{
		Fixture:        newFixtureCard(fixture, s.location),
		Prediction:     p,
		Labels:         s.classifier.ClassifyOutcome(p, fixture),
		HighConfidence: s.classifier.IsHighConfidence(p.Predictions.Percent),
		GoalsVerdict:   prediction.GoalsVerdict(p),
	}
	view.WinnerLabel, _ = prediction.WinnerLabel(p, fixture)

	if !cached {
		s.record(ctx, fixture, view)
	}

	return view, nil
}

// HeadToHead 两队最近交锋
func (s *DashboardService) HeadToHead(ctx context.Context, homeTeamID, awayTeamID int) (*apifootball.H2H, error) {
	if homeTeamID <= 0 || awayTeamID <= 0 {
		return nil, fmt.Errorf("team ids must be positive: %w", common.ErrInvalidInput)
	}

	key := GenerateCacheKey(headToHeadKey, map[string]int{"home": homeTeamID, "away": awayTeamID, "last": headToHeadLast})
	h2h, err := FetchQuery(ctx, s.cache, key, func(ctx context.Context) (*apifootball.H2H, error) {
		return s.api.GetHeadToHead(ctx, homeTeamID, awayTeamID, headToHeadLast)
	})
	if err != nil {
		return nil, s.fetchFailed(headToHeadKey, err)
	}
	return h2h, nil
}

// History 某场比赛的预测快照
func (s *DashboardService) History(ctx context.Context, fixtureID, limit int) ([]PredictionSnapshot, error) {
	if s.store == nil {
		return nil, common.ErrStoreDisabled
	}
	return s.store.History(ctx, fixtureID, clampLimit(limit))
}

// RecentHighConfidence 最近的高置信度快照
func (s *DashboardService) RecentHighConfidence(ctx context.Context, window time.Duration, limit int) ([]PredictionSnapshot, error) {
	if s.store == nil {
		return nil, common.ErrStoreDisabled
	}
	return s.store.HighConfidenceSince(ctx, s.now().Add(-window), clampLimit(limit))
}

func (s *DashboardService) findFixture(ctx context.Context, fixtureID int) (apifootball.Fixture, error) {
	for _, list := range [][]apifootball.Fixture{s.LiveFixtures(ctx), s.UpcomingFixtures(ctx)} {
		for _, f := range list {
			if f.Fixture.ID == fixtureID {
				return f, nil
			}
		}
	}
	return apifootball.Fixture{}, fmt.Errorf("fixture %d: %w", fixtureID, common.ErrFixtureNotFound)
}

// record 保存快照并分发高置信度事件, 失败只记录日志
func (s *DashboardService) record(ctx context.Context, fixture apifootball.Fixture, view *PredictionView) {
	p := view.Prediction
	event := PredictionEvent{
		FixtureID:      fixture.Fixture.ID,
		HomeTeam:       fixture.Teams.Home.Name,
		AwayTeam:       fixture.Teams.Away.Name,
		League:         fixture.League.Name,
		Kickoff:        fixture.Fixture.Date,
		Labels:         view.Labels,
		HighConfidence: view.HighConfidence,
		Percent:        p.Predictions.Percent,
		Advice:         p.Predictions.Advice,
		ClassifiedAt:   s.now(),
	}

	if s.store != nil {
		snap := PredictionSnapshot{
			FixtureID:      event.FixtureID,
			HomeTeam:       event.HomeTeam,
			AwayTeam:       event.AwayTeam,
			League:         event.League,
			Country:        fixture.League.Country,
			Kickoff:        event.Kickoff,
			Labels:         event.Labels,
			HighConfidence: event.HighConfidence,
			Percent:        event.Percent,
			Advice:         event.Advice,
			Prediction:     p,
			CreatedAt:      event.ClassifiedAt,
		}
		if err := s.store.Save(ctx, snap); err != nil {
			logger.Errorf("[Dashboard] Failed to record prediction %d: %v", event.FixtureID, err)
		}
	}

	if !view.HighConfidence {
		return
	}

	logger.Printf("[Dashboard] 🎯 High confidence: %s vs %s %v", event.HomeTeam, event.AwayTeam, event.Labels)

	if s.broker != nil {
		data, err := json.Marshal(event)
		if err != nil {
			logger.Errorf("[Dashboard] Failed to marshal prediction event: %v", err)
		} else if err := s.broker.Produce(BrokerMessage{
			Topic: GetTopicName(EventHighConfidence),
			Key:   strconv.Itoa(event.FixtureID),
			Value: data,
		}); err != nil {
			logger.Errorf("[Dashboard] Failed to publish prediction event: %v", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyHighConfidence(event); err != nil {
			logger.Errorf("[Dashboard] Failed to send high confidence notification: %v", err)
		}
	}
}

// fetchFailed 记录日志并通知用户, 返回包装后的错误
func (s *DashboardService) fetchFailed(query string, err error) error {
	logger.Errorf("[Dashboard] %s: %v", fetchFailureText(query), err)
	if s.notifier != nil {
		if nerr := s.notifier.NotifyFetchFailure(query, err); nerr != nil {
			logger.Errorf("[Dashboard] Failed to send notification: %v", nerr)
		}
	}
	if errors.Is(err, apifootball.ErrPredictionNotFound) {
		return err
	}
	return common.NewAppError(query, fetchFailureText(query), fmt.Errorf("%w: %w", common.ErrUpstream, err))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
