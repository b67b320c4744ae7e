package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// GetLiveFixtures retrieves all fixtures currently in play
func (c *Client) GetLiveFixtures(ctx context.Context) ([]Fixture, error) {
	params := url.Values{}
	params.Set("live", "all")

	return c.getFixtures(ctx, "/fixtures", params)
}

// GetUpcomingFixtures retrieves the not-started fixtures of the given day.
// The day is read in date's location; the API assumes UTC unless told
// otherwise, so named locations are passed as the timezone parameter.
func (c *Client) GetUpcomingFixtures(ctx context.Context, date time.Time) ([]Fixture, error) {
	params := url.Values{}
	params.Set("date", date.Format("2006-01-02"))
	params.Set("status", "NS")
	if tz := date.Location().String(); tz != "Local" && tz != "UTC" {
		params.Set("timezone", tz)
	}

	return c.getFixtures(ctx, "/fixtures", params)
}

// GetHeadToHead retrieves the last meetings between two teams and
// summarises them from the perspective of homeTeamID
func (c *Client) GetHeadToHead(ctx context.Context, homeTeamID, awayTeamID, last int) (*H2H, error) {
	if last <= 0 {
		last = 5
	}

	params := url.Values{}
	params.Set("h2h", fmt.Sprintf("%d-%d", homeTeamID, awayTeamID))
	params.Set("last", strconv.Itoa(last))

	fixtures, err := c.getFixtures(ctx, "/fixtures/headtohead", params)
	if err != nil {
		return nil, err
	}

	return summarizeH2H(homeTeamID, fixtures), nil
}

// GetPrediction retrieves the prediction of a fixture
func (c *Client) GetPrediction(ctx context.Context, fixtureID int) (*Prediction, error) {
	params := url.Values{}
	params.Set("fixture", strconv.Itoa(fixtureID))

	raw, err := c.get(ctx, "/predictions", params)
	if err != nil {
		return nil, err
	}

	var predictions []Prediction
	if err := json.Unmarshal(raw, &predictions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal predictions: %w", err)
	}
	if len(predictions) == 0 {
		return nil, fmt.Errorf("fixture %d: %w", fixtureID, ErrPredictionNotFound)
	}

	return &predictions[0], nil
}

func (c *Client) getFixtures(ctx context.Context, endpoint string, params url.Values) ([]Fixture, error) {
	raw, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var fixtures []Fixture
	if len(raw) == 0 || string(raw) == "null" {
		return []Fixture{}, nil
	}
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixtures: %w", err)
	}

	return fixtures, nil
}

func summarizeH2H(homeTeamID int, fixtures []Fixture) *H2H {
	h := &H2H{Fixtures: fixtures}
	played := 0

	for _, f := range fixtures {
		if f.Goals.Home == nil || f.Goals.Away == nil {
			continue
		}
		played++

		ours, theirs := *f.Goals.Home, *f.Goals.Away
		if f.Teams.Away.ID == homeTeamID {
			ours, theirs = theirs, ours
		}

		h.Goals.Home.Total += ours
		h.Goals.Away.Total += theirs

		switch {
		case ours > theirs:
			h.Wins.Home++
		case theirs > ours:
			h.Wins.Away++
		default:
			h.Draws.Total++
		}
	}

	h.Wins.Total = h.Wins.Home + h.Wins.Away
	h.Goals.Home.Average = average(h.Goals.Home.Total, played)
	h.Goals.Away.Average = average(h.Goals.Away.Total, played)

	return h
}

func average(total, played int) string {
	if played == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(float64(total)/float64(played), 'f', 1, 64)
}
