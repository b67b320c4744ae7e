package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betinsight-service/apifootball"
	"betinsight-service/config"
	"betinsight-service/pkg/common"
	"betinsight-service/prediction"
	"betinsight-service/services"
)

type stubAPI struct {
	live        []apifootball.Fixture
	upcoming    []apifootball.Fixture
	predictions map[int]*apifootball.Prediction
	err         error
}

func (s *stubAPI) GetLiveFixtures(ctx context.Context) ([]apifootball.Fixture, error) {
	return s.live, s.err
}

func (s *stubAPI) GetUpcomingFixtures(ctx context.Context, date time.Time) ([]apifootball.Fixture, error) {
	return s.upcoming, s.err
}

func (s *stubAPI) GetHeadToHead(ctx context.Context, home, away, last int) (*apifootball.H2H, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &apifootball.H2H{Wins: apifootball.H2HWins{Home: 1, Away: 2, Total: 3}}, nil
}

func (s *stubAPI) GetPrediction(ctx context.Context, fixtureID int) (*apifootball.Prediction, error) {
	p, ok := s.predictions[fixtureID]
	if !ok {
		return nil, apifootball.ErrPredictionNotFound
	}
	return p, nil
}

func newTestServer(t *testing.T, api *stubAPI) (*Server, *Hub) {
	t.Helper()

	cache := services.NewQueryCache(services.NewMemoryBackend(0), time.Minute)
	dashboard := services.NewDashboardService(api, cache, prediction.NewClassifier(prediction.DefaultThresholds), nil)
	hub := NewHub()
	go hub.Run()

	cfg := &config.Config{Port: "0", Environment: "test"}
	return NewServer(cfg, dashboard, nil, hub), hub
}

func sampleAPI() *stubAPI {
	kickoff := time.Now().Add(time.Minute)
	return &stubAPI{
		live: []apifootball.Fixture{},
		upcoming: []apifootball.Fixture{{
			Fixture: apifootball.FixtureInfo{ID: 7, Date: kickoff, Status: apifootball.Status{Short: "NS"}},
			Teams: apifootball.Teams{
				Home: apifootball.Team{ID: 70, Name: "Pirates"},
				Away: apifootball.Team{ID: 71, Name: "Chiefs"},
			},
		}},
		predictions: map[int]*apifootball.Prediction{
			7: {Predictions: apifootball.PredictionOutput{
				Winner:  &apifootball.Winner{ID: 70, Name: "Pirates"},
				Goals:   apifootball.PredictedGoals{Home: "2.0", Away: "1.0"},
				Percent: apifootball.Percent{Home: "90%", Draw: "5%", Away: "5%"},
			}},
		},
	}
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, sampleAPI())

	rec := get(t, server.Handler(), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["environment"])
}

func TestDashboardEndpoint(t *testing.T) {
	server, _ := newTestServer(t, sampleAPI())

	rec := get(t, server.Handler(), "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var view services.OverviewView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Sports Analysis Dashboard", view.Title)
	assert.Len(t, view.Upcoming, 1)
	assert.Empty(t, view.Live)
}

func TestDashboardRejectsBadFixture(t *testing.T) {
	server, _ := newTestServer(t, sampleAPI())

	rec := get(t, server.Handler(), "/api/dashboard?fixture=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictionEndpoint(t *testing.T) {
	server, _ := newTestServer(t, sampleAPI())
	handler := server.Handler()

	rec := get(t, handler, "/api/fixtures/7/prediction")
	require.Equal(t, http.StatusOK, rec.Code)

	var view services.PredictionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, []string{"H-Win", "Over 0.5", "Over 1.5", "Over 2.5", "BTTS"}, view.Labels)
	assert.True(t, view.HighConfidence)
	assert.Equal(t, "Over 2.5", view.GoalsVerdict)

	assert.Equal(t, http.StatusNotFound, get(t, handler, "/api/fixtures/8/prediction").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, handler, "/api/fixtures/0/prediction").Code)
}

func TestSpinaZonkeEndpoint(t *testing.T) {
	server, _ := newTestServer(t, sampleAPI())

	rec := get(t, server.Handler(), "/api/spina-zonke")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coming Soon")
}

func TestHeadToHeadEndpoint(t *testing.T) {
	server, _ := newTestServer(t, sampleAPI())

	rec := get(t, server.Handler(), "/api/h2h/70/71")
	require.Equal(t, http.StatusOK, rec.Code)

	var h2h apifootball.H2H
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h2h))
	assert.Equal(t, 3, h2h.Wins.Total)
}

func TestHeadToHeadUpstreamFailure(t *testing.T) {
	api := sampleAPI()
	api.err = errors.New("rate limited")
	server, _ := newTestServer(t, api)

	rec := get(t, server.Handler(), "/api/h2h/70/71")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "h2h", body["code"])
	assert.Equal(t, "Failed to fetch head-to-head statistics", body["message"])
}

func TestHistoryWithoutDatabase(t *testing.T) {
	server, _ := newTestServer(t, sampleAPI())
	handler := server.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, handler, "/api/predictions/history?fixture=7").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, handler, "/api/predictions/history").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, handler, "/api/predictions/high-confidence?hours=6").Code)
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrInvalidInput, http.StatusBadRequest},
		{common.ErrFixtureNotFound, http.StatusNotFound},
		{apifootball.ErrPredictionNotFound, http.StatusNotFound},
		{common.ErrStoreDisabled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("Expected %d for %v, got %d", tt.want, tt.err, rec.Code)
		}
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketBroadcastAndFilters(t *testing.T) {
	server, hub := newTestServer(t, sampleAPI())
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, MessageConnected, readMessage(t, conn).Type)

	hub.Broadcast(services.MessageLiveFixtures, []apifootball.Fixture{})
	assert.Equal(t, services.MessageLiveFixtures, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":          "subscribe",
		"message_types": []string{MessageHighConfidence},
	}))
	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for c := range hub.clients {
			if !c.shouldReceive(services.MessageLiveFixtures) {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	events := make(chan services.BrokerMessage, 1)
	data, err := json.Marshal(services.PredictionEvent{FixtureID: 7, HomeTeam: "Pirates", HighConfidence: true})
	require.NoError(t, err)

	hub.Broadcast(services.MessageLiveFixtures, []apifootball.Fixture{})
	events <- services.BrokerMessage{Topic: services.GetTopicName(services.EventHighConfidence), Key: "7", Value: data}
	close(events)
	hub.ConsumeEvents(events)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageHighConfidence, msg.Type)
	event, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Pirates", event["home_team"])
}
