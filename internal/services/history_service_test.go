package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vaibhav1874/TrueVail/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := models.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedRecords(t *testing.T, db *gorm.DB) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []models.AnalysisRecord{
		{ID: "rec-1", Mode: "news", InputKind: "text", Status: "Likely Fake", Confidence: 0.8, CreatedAt: base},
		{ID: "rec-2", Mode: "privacy", InputKind: "text", Status: "High Risk", Confidence: 0.7, CreatedAt: base.Add(time.Minute)},
		{ID: "rec-3", Mode: "news", InputKind: "url", Status: "Likely Real", Confidence: 0.9, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "rec-4", Mode: "deepfake", InputKind: "media", Status: "Uncertain", Confidence: 0.5, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, db.Create(&records[i]).Error)
	}
}

func TestHistoryService_ListRecords(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	service := NewHistoryService(db)

	t.Run("newest first with pagination", func(t *testing.T) {
		records, total, err := service.ListRecords(context.Background(), 1, 2, "")
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, records, 2)
		assert.Equal(t, "rec-4", records[0].ID)
		assert.Equal(t, "rec-3", records[1].ID)

		records, _, err = service.ListRecords(context.Background(), 2, 2, "")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "rec-2", records[0].ID)
	})

	t.Run("filtered by mode", func(t *testing.T) {
		records, total, err := service.ListRecords(context.Background(), 1, 10, "NEWS")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, r := range records {
			assert.Equal(t, "news", r.Mode)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, _, err := service.ListRecords(context.Background(), 1, 10, "satire")
		assert.Error(t, err)
	})

	t.Run("page past the end", func(t *testing.T) {
		records, total, err := service.ListRecords(context.Background(), 5, 10, "")
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Empty(t, records)
	})
}

func TestHistoryService_GetRecord(t *testing.T) {
	db := setupTestDB(t)
	seedRecords(t, db)
	service := NewHistoryService(db)

	record, err := service.GetRecord(context.Background(), "rec-2")
	require.NoError(t, err)
	assert.Equal(t, "privacy", record.Mode)

	_, err = service.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
