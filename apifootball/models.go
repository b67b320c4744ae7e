package apifootball

import "time"

// Fixture represents a single scheduled or in-progress match
type Fixture struct {
	Fixture FixtureInfo `json:"fixture"`
	League  League      `json:"league"`
	Teams   Teams       `json:"teams"`
	Goals   Goals       `json:"goals"`
}

// FixtureInfo holds the fixture identity and schedule
type FixtureInfo struct {
	ID        int       `json:"id"`
	Referee   string    `json:"referee,omitempty"`
	Timezone  string    `json:"timezone,omitempty"`
	Date      time.Time `json:"date"`
	Timestamp int64     `json:"timestamp,omitempty"`
	Venue     Venue     `json:"venue"`
	Status    Status    `json:"status"`
}

// Venue represents a stadium
type Venue struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// Status is the match status (NS, 1H, HT, 2H, FT, ...)
type Status struct {
	Long    string `json:"long,omitempty"`
	Short   string `json:"short"`
	Elapsed *int   `json:"elapsed,omitempty"`
}

// Team represents a team inside a fixture
type Team struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo,omitempty"`
	Winner *bool  `json:"winner,omitempty"`
}

// Teams holds both sides of a fixture
type Teams struct {
	Home Team `json:"home"`
	Away Team `json:"away"`
}

// Goals are nil until the match has started
type Goals struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// League represents the competition of a fixture
type League struct {
	ID      int    `json:"id,omitempty"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Logo    string `json:"logo,omitempty"`
	Season  int    `json:"season,omitempty"`
	Round   string `json:"round,omitempty"`
}

// notStarted lists the status codes of fixtures that have not kicked off.
var notStarted = map[string]bool{
	"TBD":  true,
	"NS":   true,
	"PST":  true,
	"CANC": true,
}

// Started reports whether the fixture status indicates kickoff has happened.
func (f Fixture) Started() bool {
	return !notStarted[f.Fixture.Status.Short]
}

// Prediction is the API prediction for a single fixture
type Prediction struct {
	Predictions PredictionOutput `json:"predictions"`
	Comparison  Comparison       `json:"comparison"`
}

// PredictionOutput is the "predictions" member of a prediction
type PredictionOutput struct {
	Winner    *Winner        `json:"winner"`
	WinOrDraw bool           `json:"win_or_draw"`
	UnderOver string         `json:"under_over"`
	Goals     PredictedGoals `json:"goals"`
	Advice    string         `json:"advice"`
	Percent   Percent        `json:"percent"`
}

// Winner is the predicted winner
type Winner struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// PredictedGoals are expected goals as numeric strings
type PredictedGoals struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Percent is the win/draw/away probability triple, e.g. "45%"
type Percent struct {
	Home string `json:"home"`
	Draw string `json:"draw"`
	Away string `json:"away"`
}

// SideMetric is a free-text percentage per side
type SideMetric struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Comparison holds the team comparison metrics
type Comparison struct {
	Form  SideMetric `json:"form"`
	Att   SideMetric `json:"att"`
	Def   SideMetric `json:"def"`
	Goals SideMetric `json:"goals"`
	Total SideMetric `json:"total"`
}

// H2H summarises the recent meetings of two teams
type H2H struct {
	Fixtures []Fixture `json:"fixtures"`
	Wins     H2HWins   `json:"wins"`
	Draws    H2HDraws  `json:"draws"`
	Goals    H2HGoals  `json:"goals"`
}

// H2HWins counts wins from the perspective of the requested home team
type H2HWins struct {
	Home  int `json:"home"`
	Away  int `json:"away"`
	Total int `json:"total"`
}

// H2HDraws counts drawn meetings
type H2HDraws struct {
	Total int `json:"total"`
}

// H2HGoals sums goals per side
type H2HGoals struct {
	Home GoalTotal `json:"home"`
	Away GoalTotal `json:"away"`
}

// GoalTotal is a total and a formatted per-match average
type GoalTotal struct {
	Total   int    `json:"total"`
	Average string `json:"average"`
}
