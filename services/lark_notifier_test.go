package services

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLarkNotifierDisabled(t *testing.T) {
	n := NewLarkNotifier("")
	assert.NoError(t, n.SendText("ignored"))
	assert.NoError(t, n.NotifyFetchFailure(LiveFixturesKey, errors.New("x")))
}

func TestLarkNotifierFetchFailure(t *testing.T) {
	var received LarkMessage
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		raw = string(body)
		json.Unmarshal(body, &received)
	}))
	defer srv.Close()

	n := NewLarkNotifier(srv.URL)
	require.NoError(t, n.NotifyFetchFailure(UpcomingFixturesKey, errors.New("timeout")))

	assert.Equal(t, "post", received.MsgType)
	assert.True(t, strings.Contains(raw, "Failed to fetch upcoming fixtures"))
	assert.True(t, strings.Contains(raw, "timeout"))
}

func TestLarkNotifierStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewLarkNotifier(srv.URL)
	assert.Error(t, n.SendText("hello"))
}

func TestFetchFailureText(t *testing.T) {
	assert.Equal(t, "Failed to fetch live fixtures", fetchFailureText(LiveFixturesKey))
	assert.Equal(t, "Failed to fetch prediction", fetchFailureText(predictionKey))
	assert.Equal(t, "Failed to fetch head-to-head statistics", fetchFailureText(headToHeadKey))
	assert.Equal(t, "Failed to fetch standings", fetchFailureText("standings"))
}
