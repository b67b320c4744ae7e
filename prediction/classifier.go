// Package prediction derives outcome labels and confidence flags from
// API-Football predictions. Every function here is pure and safe for
// concurrent use.
package prediction

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"betinsight-service/apifootball"
)

const (
	LabelHomeWin = "H-Win"
	LabelAwayWin = "A-Win"
	LabelBTTS    = "BTTS"
)

// Thresholds are the tunable cut-offs of the classifier.
type Thresholds struct {
	// HighConfidence is the minimum top probability, in percent (inclusive).
	HighConfidence float64
	// OverGoals are the total-goals lines, each emitted as "Over x" when exceeded.
	OverGoals []float64
}

// DefaultThresholds mirror the values the dashboard has always used.
var DefaultThresholds = Thresholds{
	HighConfidence: 84,
	OverGoals:      []float64{0.5, 1.5, 2.5, 3.5},
}

// GoalsLine is the line used by the goals verdict on the confidence card.
const GoalsLine = 2.5

type Classifier struct {
	thresholds Thresholds
}

// NewClassifier copies t, sorts the goal lines ascending and drops repeats,
// so each Over label is emitted at most once.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: Thresholds{HighConfidence: t.HighConfidence, OverGoals: GoalLines(t.OverGoals)}}
}

// GoalLines returns lines sorted ascending without duplicates or NaN.
func GoalLines(lines []float64) []float64 {
	overs := make([]float64, 0, len(lines))
	for _, line := range lines {
		if !math.IsNaN(line) {
			overs = append(overs, line)
		}
	}
	sort.Float64s(overs)

	out := overs[:0]
	for _, line := range overs {
		if len(out) > 0 && line == out[len(out)-1] {
			continue
		}
		out = append(out, line)
	}
	return out
}

var defaultClassifier = NewClassifier(DefaultThresholds)

// ClassifyOutcome uses DefaultThresholds.
func ClassifyOutcome(p *apifootball.Prediction, f apifootball.Fixture) []string {
	return defaultClassifier.ClassifyOutcome(p, f)
}

// IsHighConfidence uses DefaultThresholds.
func IsHighConfidence(percent apifootball.Percent) bool {
	return defaultClassifier.IsHighConfidence(percent)
}

// Thresholds returns a copy of the classifier's cut-offs.
func (c *Classifier) Thresholds() Thresholds {
	return Thresholds{
		HighConfidence: c.thresholds.HighConfidence,
		OverGoals:      append([]float64(nil), c.thresholds.OverGoals...),
	}
}

// ClassifyOutcome returns the winner label, then every exceeded Over line in
// ascending order, then BTTS. A nil prediction yields an empty slice.
func (c *Classifier) ClassifyOutcome(p *apifootball.Prediction, f apifootball.Fixture) []string {
	labels := []string{}
	if p == nil {
		return labels
	}

	if label, ok := WinnerLabel(p, f); ok {
		labels = append(labels, label)
	}

	home := ParsePercent(p.Predictions.Goals.Home)
	away := ParsePercent(p.Predictions.Goals.Away)
	total := home + away
	for _, line := range c.thresholds.OverGoals {
		if total > line {
			labels = append(labels, OverLabel(line))
		}
	}

	if home > 0 && away > 0 {
		labels = append(labels, LabelBTTS)
	}

	return labels
}

// IsHighConfidence reports whether the largest of the three probabilities
// reaches the threshold. Any unparseable member makes the result false.
func (c *Classifier) IsHighConfidence(percent apifootball.Percent) bool {
	home := ParsePercent(percent.Home)
	draw := ParsePercent(percent.Draw)
	away := ParsePercent(percent.Away)
	if math.IsNaN(home) || math.IsNaN(draw) || math.IsNaN(away) {
		return false
	}
	return math.Max(home, math.Max(draw, away)) >= c.thresholds.HighConfidence
}

// FilterTodayUpcoming keeps fixtures that kick off later than now on the same
// calendar day, in now's location. Input order is preserved.
func FilterTodayUpcoming(fixtures []apifootball.Fixture, now time.Time) []apifootball.Fixture {
	y, m, d := now.Date()
	out := make([]apifootball.Fixture, 0, len(fixtures))

	for _, f := range fixtures {
		kickoff := f.Fixture.Date.In(now.Location())
		ky, km, kd := kickoff.Date()
		if ky != y || km != m || kd != d {
			continue
		}
		if !kickoff.After(now) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// WinnerLabel is H-Win when the predicted winner is the home team and A-Win
// for any other named winner. ok is false when no winner is named.
func WinnerLabel(p *apifootball.Prediction, f apifootball.Fixture) (string, bool) {
	if p == nil || p.Predictions.Winner == nil || p.Predictions.Winner.Name == "" {
		return "", false
	}
	if p.Predictions.Winner.Name == f.Teams.Home.Name {
		return LabelHomeWin, true
	}
	return LabelAwayWin, true
}

// GoalsVerdict compares expected total goals against the 2.5 line.
func GoalsVerdict(p *apifootball.Prediction) string {
	if p != nil {
		total := ParsePercent(p.Predictions.Goals.Home) + ParsePercent(p.Predictions.Goals.Away)
		if total > GoalsLine {
			return OverLabel(GoalsLine)
		}
	}
	return "Under " + formatLine(GoalsLine)
}

// OverLabel formats a goals line, e.g. "Over 2.5".
func OverLabel(line float64) string {
	return "Over " + formatLine(line)
}

func formatLine(line float64) string {
	return strconv.FormatFloat(line, 'f', -1, 64)
}

// ParsePercent reads the leading number of s the way parseFloat does, so
// "45%" is 45, "-1.5" is -1.5, "1e2" is 100 and "Infinity" is +Inf. It
// returns NaN when s does not start with a number.
func ParsePercent(s string) float64 {
	s = strings.TrimSpace(s)

	end := 0
	sign := 1.0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		if s[end] == '-' {
			sign = -1
		}
		end++
	}
	if strings.HasPrefix(s[end:], "Infinity") {
		return math.Inf(int(sign))
	}

	digits, dot := 0, false
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' {
			digits++
		} else if ch == '.' && !dot {
			dot = true
		} else {
			break
		}
		end++
	}
	if digits == 0 {
		return math.NaN()
	}

	// exponent only counts when followed by at least one digit
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for expDigits < len(s) && s[expDigits] >= '0' && s[expDigits] <= '9' {
			expDigits++
		}
		if expDigits > exp {
			end = expDigits
		}
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}
