package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect 连接到数据库
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return db, nil
}

// Migrations 按顺序执行的建表语句
var Migrations = []string{
	// 预测快照表
	`CREATE TABLE IF NOT EXISTS prediction_snapshots (
		id UUID PRIMARY KEY,
		fixture_id BIGINT NOT NULL,
		home_team VARCHAR(255) NOT NULL,
		away_team VARCHAR(255) NOT NULL,
		league VARCHAR(255),
		country VARCHAR(255),
		kickoff TIMESTAMPTZ,
		labels TEXT[] NOT NULL DEFAULT '{}',
		high_confidence BOOLEAN NOT NULL DEFAULT FALSE,
		percent_home VARCHAR(16),
		percent_draw VARCHAR(16),
		percent_away VARCHAR(16),
		advice TEXT,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_snapshots_fixture_id ON prediction_snapshots(fixture_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_snapshots_created_at ON prediction_snapshots(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_snapshots_high_confidence ON prediction_snapshots(high_confidence) WHERE high_confidence`,
}

// Migrate 运行数据库迁移
func Migrate(db *sql.DB) error {
	for i, migration := range Migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}
