package main

import (
	"betinsight-service/config"
	"betinsight-service/database"
	"betinsight-service/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatalf("DATABASE_URL environment variable is not set")
	}

	// 连接数据库
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger.Println("Connected to database successfully")

	logger.Printf("Running %d migrations", len(database.Migrations))
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}

	logger.Println("✅ All migrations completed successfully")
}
