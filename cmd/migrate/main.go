package main

import (
	"log"

	"ragchat-be/internal/config"
	"ragchat-be/internal/model"
	"ragchat-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions (AutoMigrate cannot create them)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute setup SQL %q: %v", sql, err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Chat{},
		&model.Message{},
		&model.ChatAnalytics{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.Embedding{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: indexes GORM tags cannot express
	log.Println("Step 3: Creating Indexes...")

	postMigrationSQL := []string{
		// Nearest-neighbour search on the pgvector column
		`CREATE INDEX IF NOT EXISTS idx_embeddings_vector_hnsw
		 ON embeddings USING hnsw (embedding_vector vector_cosine_ops);`,

		// Sibling counting for path assignment
		`CREATE INDEX IF NOT EXISTS idx_messages_parent_active
		 ON messages (parent_id) WHERE is_deleted = false;`,
		`CREATE INDEX IF NOT EXISTS idx_messages_root_active
		 ON messages (chat_id) WHERE parent_id IS NULL AND is_deleted = false;`,

		`CREATE INDEX IF NOT EXISTS idx_document_chunks_doc_index
		 ON document_chunks (document_id, chunk_index);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
