package handlers

import (
	"time"

	"photo-vault/internal/database"
	"photo-vault/internal/ingest"
)

type Handlers struct {
	db        *database.Database
	pipeline  *ingest.Pipeline
	uploadDir string
	startTime time.Time
}

func New(db *database.Database, pipeline *ingest.Pipeline, uploadDir string) *Handlers {
	return &Handlers{
		db:        db,
		pipeline:  pipeline,
		uploadDir: uploadDir,
		startTime: time.Now(),
	}
}
