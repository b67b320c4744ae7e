package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"betinsight-service/pkg/common"
)

// handleDashboard 首页, ?fixture= 选中比赛
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := optionalInt(r, "fixture")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := s.dashboard.Overview(r.Context(), fixtureID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSoccer 今日高准确率预测
func (s *Server) handleSoccer(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := optionalInt(r, "fixture")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := s.dashboard.Soccer(r.Context(), fixtureID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSpinaZonke(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Placeholder())
}

func (s *Server) handleLiveFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures := s.dashboard.LiveFixtures(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fixtures": fixtures,
		"count":    len(fixtures),
	})
}

func (s *Server) handleUpcomingFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures := s.dashboard.UpcomingFixtures(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fixtures": fixtures,
		"count":    len(fixtures),
	})
}

// handlePrediction 单场预测及标签
func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := s.dashboard.Prediction(r.Context(), fixtureID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleHeadToHead 两队交锋记录
func (s *Server) handleHeadToHead(w http.ResponseWriter, r *http.Request) {
	home, err := pathInt(r, "home")
	if err != nil {
		writeError(w, err)
		return
	}
	away, err := pathInt(r, "away")
	if err != nil {
		writeError(w, err)
		return
	}

	h2h, err := s.dashboard.HeadToHead(r.Context(), home, away)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h2h)
}

// handlePredictionHistory 某场比赛的历史快照
func (s *Server) handlePredictionHistory(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := optionalInt(r, "fixture")
	if err != nil {
		writeError(w, err)
		return
	}
	if fixtureID <= 0 {
		writeError(w, fmt.Errorf("fixture is required: %w", common.ErrInvalidInput))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	snapshots, err := s.dashboard.History(r.Context(), fixtureID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fixture":   fixtureID,
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// handleHighConfidence 最近 N 小时的高置信度预测 (默认 24)
func (s *Server) handleHighConfidence(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	hours, _ := strconv.Atoi(query.Get("hours"))
	if hours <= 0 {
		hours = 24
	}
	limit, _ := strconv.Atoi(query.Get("limit"))

	snapshots, err := s.dashboard.RecentHighConfidence(r.Context(), time.Duration(hours)*time.Hour, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hours":     hours,
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

func optionalInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, common.ErrInvalidInput)
	}
	return v, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, common.ErrInvalidInput)
	}
	return v, nil
}
