package apifootball

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test_key")

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.apiKey != "test_key" {
		t.Errorf("Expected key to be 'test_key', got '%s'", client.apiKey)
	}

	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected baseURL to be '%s', got '%s'", DefaultBaseURL, client.baseURL)
	}

	if client.host != DefaultHost {
		t.Errorf("Expected host to be '%s', got '%s'", DefaultHost, client.host)
	}
}

func TestNewClientWithConfig(t *testing.T) {
	client := NewClientWithConfig(Config{
		BaseURL: "https://custom.api.com",
		APIKey:  "custom_key",
		Timeout: 60 * time.Second,
	})

	if client.baseURL != "https://custom.api.com" {
		t.Errorf("Expected baseURL to be 'https://custom.api.com', got '%s'", client.baseURL)
	}

	if client.host != DefaultHost {
		t.Errorf("Expected default host, got '%s'", client.host)
	}

	if client.httpClient.Timeout != 60*time.Second {
		t.Errorf("Expected timeout to be 60s, got %v", client.httpClient.Timeout)
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{Code: 429, Message: "Too many requests"}

	expected := "API error 429: Too many requests"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(Config{BaseURL: srv.URL, APIKey: "k", Host: "h"})
}

func TestGetLiveFixtures(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" || r.URL.Query().Get("live") != "all" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.Header.Get("x-rapidapi-key") != "k" || r.Header.Get("x-rapidapi-host") != "h" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		w.Write([]byte(`{"errors":[],"results":1,"response":[{
			"fixture":{"id":7,"date":"2024-01-01T12:00:00+00:00","venue":{"name":"Anfield"},"status":{"short":"1H"}},
			"league":{"name":"Premier League","country":"England"},
			"teams":{"home":{"id":40,"name":"Liverpool"},"away":{"id":49,"name":"Chelsea"}},
			"goals":{"home":1,"away":0}}]}`))
	})

	fixtures, err := client.GetLiveFixtures(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("Expected 1 fixture, got %d", len(fixtures))
	}

	f := fixtures[0]
	if f.Fixture.ID != 7 || f.Teams.Home.Name != "Liverpool" || f.Fixture.Venue.Name != "Anfield" {
		t.Errorf("unexpected fixture %+v", f)
	}
	if f.Goals.Home == nil || *f.Goals.Home != 1 {
		t.Errorf("Expected home goals 1, got %v", f.Goals.Home)
	}
	if !f.Started() {
		t.Error("Expected 1H fixture to be started")
	}
}

func TestGetUpcomingFixturesQuery(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("date") != "2024-03-09" || q.Get("status") != "NS" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if _, ok := q["timezone"]; ok {
			t.Errorf("Expected no timezone for UTC, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"errors":[],"results":1,"response":[{
			"fixture":{"id":8,"date":"2024-03-09T15:00:00+00:00","venue":{"name":"X"},"status":{"short":"NS"}},
			"teams":{"home":{"name":"A"},"away":{"name":"B"}},
			"goals":{"home":null,"away":null}}]}`))
	})

	fixtures, err := client.GetUpcomingFixtures(context.Background(), time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixtures) != 1 || fixtures[0].Goals.Home != nil {
		t.Errorf("Expected one fixture without goals, got %+v", fixtures)
	}
	if fixtures[0].Started() {
		t.Error("Expected NS fixture not to be started")
	}
}

func TestGetPredictionEmpty(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[],"results":0,"response":[]}`))
	})

	_, err := client.GetPrediction(context.Background(), 1)
	if !errors.Is(err, ErrPredictionNotFound) {
		t.Errorf("Expected ErrPredictionNotFound, got %v", err)
	}
}

func TestGetPrediction(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fixture") != "99" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"errors":[],"results":1,"response":[{
			"predictions":{"winner":{"id":40,"name":"Liverpool","comment":"Win or draw"},
				"win_or_draw":true,"under_over":"-3.5","goals":{"home":"-2.5","away":"-1.5"},
				"advice":"Double chance : Liverpool or draw","percent":{"home":"50%","draw":"50%","away":"0%"}},
			"comparison":{"form":{"home":"60%","away":"40%"},"att":{"home":"55%","away":"45%"},
				"def":{"home":"50%","away":"50%"}}}]}`))
	})

	p, err := client.GetPrediction(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Predictions.Winner == nil || p.Predictions.Winner.Name != "Liverpool" {
		t.Errorf("unexpected winner %+v", p.Predictions.Winner)
	}
	if p.Predictions.Percent.Home != "50%" || p.Comparison.Att.Away != "45%" {
		t.Errorf("unexpected prediction %+v", p)
	}
}

func TestGetPredictionNullWinner(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[],"results":1,"response":[{"predictions":{"winner":null,"under_over":null,
			"goals":{"home":"1.0","away":"1.0"},"percent":{"home":"33%","draw":"34%","away":"33%"}}}]}`))
	})

	p, err := client.GetPrediction(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Predictions.Winner != nil {
		t.Errorf("Expected nil winner, got %+v", p.Predictions.Winner)
	}
}

func TestEnvelopeErrors(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":{"token":"Error/Missing application key."},"results":0,"response":[]}`))
	})

	_, err := client.GetLiveFixtures(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Message != "token: Error/Missing application key." {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestHTTPStatusError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetLiveFixtures(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 APIError, got %v", err)
	}
}

func TestGetHeadToHeadSummary(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("h2h") != "40-49" || q.Get("last") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"errors":[],"results":3,"response":[
			{"teams":{"home":{"id":40},"away":{"id":49}},"goals":{"home":2,"away":0}},
			{"teams":{"home":{"id":49},"away":{"id":40}},"goals":{"home":3,"away":1}},
			{"teams":{"home":{"id":49},"away":{"id":40}},"goals":{"home":1,"away":1}}]}`))
	})

	h, err := client.GetHeadToHead(context.Background(), 40, 49, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if h.Wins.Home != 1 || h.Wins.Away != 1 || h.Wins.Total != 2 || h.Draws.Total != 1 {
		t.Errorf("unexpected record %+v %+v", h.Wins, h.Draws)
	}
	if h.Goals.Home.Total != 4 || h.Goals.Away.Total != 4 {
		t.Errorf("unexpected goals %+v", h.Goals)
	}
	if h.Goals.Home.Average != "1.3" {
		t.Errorf("Expected average '1.3', got '%s'", h.Goals.Home.Average)
	}
}

func TestGetUpcomingFixturesTimezone(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("date") != "2024-03-10" {
			t.Errorf("Expected local date 2024-03-10, got %s", q.Get("date"))
		}
		if q.Get("timezone") != "Africa/Johannesburg" {
			t.Errorf("Expected timezone Africa/Johannesburg, got %q", q.Get("timezone"))
		}
		w.Write([]byte(`{"errors":[],"results":0,"response":[]}`))
	})

	sast := time.FixedZone("Africa/Johannesburg", 2*60*60)
	date := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC).In(sast)
	if _, err := client.GetUpcomingFixtures(context.Background(), date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
