package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/package-register/note-summarizer/pipeline"
)

// Run is one recorded summary request.
type Run struct {
	ID               uint      `gorm:"primaryKey"`
	CreatedAt        time.Time `gorm:"index"`
	NoteID           string    `gorm:"index;not null"`
	Model            string
	References       int
	Unresolved       int
	PromptTokens     int
	CompletionDeltas int
	Malformed        int
	Termination      string
	Code             pipeline.ErrorCode
	Message          string
	Elapsed          time.Duration
	Summary          string
}

// Succeeded reports whether the run produced a summary.
func (r Run) Succeeded() bool {
	return r.Code == ""
}

// History stores runs in a gorm database.
type History struct {
	db *gorm.DB
}

// NewHistory migrates the run table and returns a History.
func NewHistory(db *gorm.DB) (*History, error) {
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("storage: migrate runs: %w", err)
	}
	return &History{db: db}, nil
}

// OpenHistory opens the SQLite database at path and prepares it for runs.
func OpenHistory(path string) (*History, error) {
	db, err := NewSQLite(SQLiteConfig{Path: path})
	if err != nil {
		return nil, err
	}
	h, err := NewHistory(db)
	if err != nil {
		_ = closeDB(db)
		return nil, err
	}
	return h, nil
}

// Record stores run and fills in its ID.
func (h *History) Record(ctx context.Context, run *Run) error {
	if run.NoteID == "" {
		return fmt.Errorf("storage: run without note")
	}
	if err := h.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("storage: record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A note filter narrows the
// result to one note.
func (h *History) Recent(ctx context.Context, limit int, noteID string) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := h.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if noteID != "" {
		q = q.Where("note_id = ?", noteID)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("storage: list runs: %w", err)
	}
	return runs, nil
}

// Close releases the database.
func (h *History) Close() error {
	return closeDB(h.db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
