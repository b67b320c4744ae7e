package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"betinsight-service/apifootball"
)

// PredictionRecorder 预测快照存取接口
type PredictionRecorder interface {
	Save(ctx context.Context, snap PredictionSnapshot) error
	History(ctx context.Context, fixtureID, limit int) ([]PredictionSnapshot, error)
	HighConfidenceSince(ctx context.Context, since time.Time, limit int) ([]PredictionSnapshot, error)
}

// PredictionSnapshot 一次分类结果
type PredictionSnapshot struct {
	ID             uuid.UUID               `json:"id"`
	FixtureID      int                     `json:"fixture_id"`
	HomeTeam       string                  `json:"home_team"`
	AwayTeam       string                  `json:"away_team"`
	League         string                  `json:"league"`
	Country        string                  `json:"country"`
	Kickoff        time.Time               `json:"kickoff"`
	Labels         []string                `json:"labels"`
	HighConfidence bool                    `json:"high_confidence"`
	Percent        apifootball.Percent     `json:"percent"`
	Advice         string                  `json:"advice"`
	Prediction     *apifootball.Prediction `json:"prediction,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// PredictionStore PostgreSQL 实现
type PredictionStore struct {
	db *sql.DB
}

func NewPredictionStore(db *sql.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

// Save 保存快照, ID 与时间为空时自动生成
func (s *PredictionStore) Save(ctx context.Context, snap PredictionSnapshot) error {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(snap.Prediction)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction payload: %w", err)
	}

	query := `
		INSERT INTO prediction_snapshots (id, fixture_id, home_team, away_team, league, country, kickoff,
			labels, high_confidence, percent_home, percent_draw, percent_away, advice, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.db.ExecContext(ctx, query,
		snap.ID, snap.FixtureID, snap.HomeTeam, snap.AwayTeam, snap.League, snap.Country, nullTime(snap.Kickoff),
		pq.Array(snap.Labels), snap.HighConfidence, snap.Percent.Home, snap.Percent.Draw, snap.Percent.Away,
		snap.Advice, payload, snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction snapshot: %w", err)
	}
	return nil
}

// History 获取某场比赛的快照, 最新在前
func (s *PredictionStore) History(ctx context.Context, fixtureID, limit int) ([]PredictionSnapshot, error) {
	query := selectSnapshots + ` WHERE fixture_id = $1 ORDER BY created_at DESC LIMIT $2`
	return s.query(ctx, query, fixtureID, limit)
}

// HighConfidenceSince 获取某时间之后的高置信度快照
func (s *PredictionStore) HighConfidenceSince(ctx context.Context, since time.Time, limit int) ([]PredictionSnapshot, error) {
	query := selectSnapshots + ` WHERE high_confidence AND created_at >= $1 ORDER BY created_at DESC LIMIT $2`
	return s.query(ctx, query, since, limit)
}

const selectSnapshots = `
	SELECT id, fixture_id, home_team, away_team, COALESCE(league, ''), COALESCE(country, ''), kickoff,
		labels, high_confidence, COALESCE(percent_home, ''), COALESCE(percent_draw, ''), COALESCE(percent_away, ''),
		COALESCE(advice, ''), payload, created_at
	FROM prediction_snapshots`

func (s *PredictionStore) query(ctx context.Context, query string, args ...interface{}) ([]PredictionSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []PredictionSnapshot{}
	for rows.Next() {
		var (
			snap    PredictionSnapshot
			kickoff sql.NullTime
			payload []byte
		)
		if err := rows.Scan(
			&snap.ID, &snap.FixtureID, &snap.HomeTeam, &snap.AwayTeam, &snap.League, &snap.Country, &kickoff,
			pq.Array(&snap.Labels), &snap.HighConfidence, &snap.Percent.Home, &snap.Percent.Draw, &snap.Percent.Away,
			&snap.Advice, &payload, &snap.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction snapshot: %w", err)
		}
		if kickoff.Valid {
			snap.Kickoff = kickoff.Time
		}
		if len(payload) > 0 && string(payload) != "null" {
			var p apifootball.Prediction
			if err := json.Unmarshal(payload, &p); err == nil {
				snap.Prediction = &p
			}
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
