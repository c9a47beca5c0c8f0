package main

import (
	"flag"
	"log"

	"course-buddy-be/internal/config"
	"course-buddy-be/internal/model"
	"course-buddy-be/pkg/database"
)

func main() {
	withIndex := flag.Bool("hnsw", true, "create the HNSW cosine index on embeddings")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.TranscriptChunk{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	if *withIndex {
		log.Println("Step 3: Creating vector index...")
		sql := `CREATE INDEX IF NOT EXISTS idx_transcript_chunks_embedding
		        ON transcript_chunks USING hnsw (embedding_value vector_cosine_ops);`
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create vector index: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
