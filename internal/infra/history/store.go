// Package history persists calculation results and failures.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"voicecalc/internal/domain"
)

// Record is one persisted calculation.
type Record struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	Transcript string    `json:"transcript,omitempty"`
	Equation   string    `json:"equation,omitempty"`
	Result     string    `json:"result"`
	ErrorKind  string    `gorm:"size:32" json:"errorKind,omitempty"`
	SourceType string    `gorm:"size:16;index" json:"sourceType"`
	Source     string    `gorm:"size:16" json:"source,omitempty"`
	Language   string    `gorm:"size:16" json:"language,omitempty"`
}

func (Record) TableName() string { return "calculations" }

type Store struct {
	db      *gorm.DB
	maxRows int
}

// Open opens (or creates) the database at path. ":memory:" keeps history in
// process memory. maxRows bounds the table; zero keeps everything.
func Open(path string, maxRows int) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("opening history database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db, maxRows)
}

func New(db *gorm.DB, maxRows int) (*Store, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}
	return &Store{db: db, maxRows: maxRows}, nil
}

// Publish stores result and error events; other event kinds are ignored.
func (s *Store) Publish(ctx context.Context, ev domain.Event) error {
	if ev.Kind != domain.EventKindResult && ev.Kind != domain.EventKindError {
		return nil
	}
	if ev.Kind == domain.EventKindError && ev.Equation == "" && ev.Transcript == "" {
		// session failures (permission, recognition) carry no calculation
		return nil
	}

	rec := Record{
		ID:         ev.ID,
		CreatedAt:  ev.Time,
		Transcript: ev.Transcript,
		Equation:   ev.Equation,
		Result:     ev.Result,
		SourceType: string(ev.SourceType),
		Source:     string(ev.Source),
		Language:   ev.Language,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if ev.Error != nil {
		rec.ErrorKind = string(ev.Error.Kind)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("saving calculation: %w", err)
		}
		if s.maxRows <= 0 {
			return nil
		}
		keep := tx.Model(&Record{}).Select("id").Order("created_at DESC").Limit(s.maxRows)
		if err := tx.Where("id NOT IN (?)", keep).Delete(&Record{}).Error; err != nil {
			return fmt.Errorf("pruning history: %w", err)
		}
		return nil
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var recs []Record
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return recs, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
