package services

import (
	"fmt"
	"time"

	"betinsight-service/apifootball"
)

// FixtureCard 列表中的一场比赛
type FixtureCard struct {
	ID          int       `json:"id"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	HomeLogo    string    `json:"home_logo,omitempty"`
	AwayLogo    string    `json:"away_logo,omitempty"`
	League      string    `json:"league"`
	Country     string    `json:"country"`
	Venue       string    `json:"venue"`
	Kickoff     time.Time `json:"kickoff"`
	KickoffTime string    `json:"kickoff_time"`
	Status      string    `json:"status"`
	Score       string    `json:"score,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
}

// MetricCard 概览页的概率卡片
type MetricCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Trend string `json:"trend"`
}

// MatchAnalysis 概览页的比赛分析
type MatchAnalysis struct {
	Winner      string `json:"winner"`
	WinOrDraw   string `json:"win_or_draw"`
	UnderOver   string `json:"under_over"`
	Advice      string `json:"advice"`
	HomeAttack  string `json:"home_attack"`
	AwayAttack  string `json:"away_attack"`
	HomeDefense string `json:"home_defense"`
	AwayDefense string `json:"away_defense"`
}

// OverviewView 仪表盘首页
type OverviewView struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Live     []FixtureCard  `json:"live"`
	Upcoming []FixtureCard  `json:"upcoming"`
	Selected *FixtureCard   `json:"selected,omitempty"`
	Metrics  []MetricCard   `json:"metrics,omitempty"`
	Analysis *MatchAnalysis `json:"analysis,omitempty"`
	Notice   string         `json:"notice,omitempty"`
}

// ConfidenceCard 高置信度预测卡片
type ConfidenceCard struct {
	MatchWinner   string              `json:"match_winner"`
	WinnerComment string              `json:"winner_comment"`
	GoalsVerdict  string              `json:"goals_verdict"`
	ExpectedGoals string              `json:"expected_goals"`
	Percent       apifootball.Percent `json:"percent"`
}

// SoccerView 高准确率预测页
type SoccerView struct {
	Title          string          `json:"title"`
	Subtitle       string          `json:"subtitle"`
	Matches        []FixtureCard   `json:"matches"`
	HighConfidence *ConfidenceCard `json:"high_confidence,omitempty"`
	Notice         string          `json:"notice,omitempty"`
}

// PlaceholderView 尚未上线的页面
type PlaceholderView struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Heading  string `json:"heading"`
	Message  string `json:"message"`
}

// PredictionView 单场预测及分类结果
type PredictionView struct {
	Fixture        FixtureCard             `json:"fixture"`
	Prediction     *apifootball.Prediction `json:"prediction"`
	Labels         []string                `json:"labels"`
	HighConfidence bool                    `json:"high_confidence"`
	WinnerLabel    string                  `json:"winner_label,omitempty"`
	GoalsVerdict   string                  `json:"goals_verdict"`
}

func newFixtureCard(f apifootball.Fixture, loc *time.Location) FixtureCard {
	card := FixtureCard{
		ID:          f.Fixture.ID,
		HomeTeam:    f.Teams.Home.Name,
		AwayTeam:    f.Teams.Away.Name,
		HomeLogo:    f.Teams.Home.Logo,
		AwayLogo:    f.Teams.Away.Logo,
		League:      f.League.Name,
		Country:     f.League.Country,
		Venue:       f.Fixture.Venue.Name,
		Kickoff:     f.Fixture.Date,
		KickoffTime: f.Fixture.Date.In(loc).Format("15:04:05"),
		Status:      f.Fixture.Status.Short,
	}
	if f.Started() && f.Goals.Home != nil && f.Goals.Away != nil {
		card.Score = fmt.Sprintf("%d - %d", *f.Goals.Home, *f.Goals.Away)
	}
	return card
}

func fixtureCards(fixtures []apifootball.Fixture, limit int, loc *time.Location) []FixtureCard {
	if limit > 0 && len(fixtures) > limit {
		fixtures = fixtures[:limit]
	}
	cards := make([]FixtureCard, 0, len(fixtures))
	for _, f := range fixtures {
		cards = append(cards, newFixtureCard(f, loc))
	}
	return cards
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
