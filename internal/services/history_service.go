package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/models"
)

// HistoryServiceInterface defines the interface for analysis history queries
type HistoryServiceInterface interface {
	ListRecords(ctx context.Context, page, perPage int, mode string) ([]*models.AnalysisRecord, int64, error)
	GetRecord(ctx context.Context, id string) (*models.AnalysisRecord, error)
}

// ErrRecordNotFound is returned when no record has the requested id
var ErrRecordNotFound = fmt.Errorf("analysis record not found")

type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// ListRecords returns one page of records, newest first, optionally for a single mode
func (s *HistoryService) ListRecords(ctx context.Context, page, perPage int, mode string) ([]*models.AnalysisRecord, int64, error) {
	var records []*models.AnalysisRecord
	var total int64

	byMode := func(db *gorm.DB) *gorm.DB { return db }
	if mode != "" {
		m, err := analysis.ParseMode(mode)
		if err != nil {
			return nil, 0, err
		}
		byMode = func(db *gorm.DB) *gorm.DB { return db.Where("mode = ?", string(m)) }
	}

	if err := s.db.WithContext(ctx).Model(&models.AnalysisRecord{}).Scopes(byMode).Count(&total).Error; err != nil {
		logger.LogErrorWithStackAndCorrelation(err, logger.CorrelationIDFromContext(ctx), map[string]interface{}{
			"operation": "count_analysis_records",
			"mode":      mode,
		})
		return nil, 0, fmt.Errorf("failed to count analysis records: %w", err)
	}

	offset := (page - 1) * perPage
	if err := s.db.WithContext(ctx).Scopes(byMode).Order("created_at DESC").Offset(offset).Limit(perPage).Find(&records).Error; err != nil {
		logger.LogErrorWithStackAndCorrelation(err, logger.CorrelationIDFromContext(ctx), map[string]interface{}{
			"operation": "list_analysis_records",
			"page":      page,
			"per_page":  perPage,
			"offset":    offset,
		})
		return nil, 0, fmt.Errorf("failed to list analysis records: %w", err)
	}

	return records, total, nil
}

// GetRecord returns a single record by id
func (s *HistoryService) GetRecord(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get analysis record: %w", err)
	}
	return &record, nil
}
