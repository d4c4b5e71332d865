package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoreSink writes records into the analysis history table
type StoreSink struct {
	db *gorm.DB
}

// NewStoreSink creates a database sink
func NewStoreSink(db *gorm.DB) *StoreSink {
	return &StoreSink{db: db}
}

// Write inserts r, ignoring a record id that was already stored
func (s *StoreSink) Write(ctx context.Context, r Record) error {
	row, err := r.ToModel()
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return fmt.Errorf("failed to store audit record: %w", err)
	}
	return nil
}

// Close is a no-op; the database handle is owned by the caller
func (s *StoreSink) Close() error {
	return nil
}

// MultiSink fans a record out to several sinks and reports the first error
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, r Record) error {
	var first error
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiSink) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
