package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// AnalysisRecord is one completed analysis in the history
type AnalysisRecord struct {
	ID            string         `gorm:"size:36;primaryKey" json:"id"`
	CorrelationID string         `gorm:"size:64;index" json:"correlation_id,omitempty"`
	Mode          string         `gorm:"size:20;not null;index" json:"mode"`
	InputKind     string         `gorm:"size:20;not null" json:"input_kind"` // text, url, media
	InputPreview  string         `gorm:"type:text" json:"input_preview"`
	Status        string         `gorm:"size:64;not null;index" json:"status"`
	Confidence    float64        `gorm:"not null" json:"confidence"`
	PrivacyRisk   string         `gorm:"size:20" json:"privacy_risk"`
	Source        string         `gorm:"size:40" json:"source"`
	DurationMs    int64          `json:"duration_ms"`
	Details       datatypes.JSON `json:"details,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

// BeforeCreate will set a UUID when the producer did not assign one
func (r *AnalysisRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// AutoMigrate creates or updates database tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AnalysisRecord{})
}

// Open connects to the database named by dsn. "sqlite://path", "file:..." and
// ":memory:" select SQLite; anything else is handed to the Postgres driver.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dsn == ":memory:" {
		// each pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Driver names the dialect Open would choose for dsn
func Driver(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if strings.HasPrefix(dsn, "sqlite://") || strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return "sqlite"
	}
	return "postgres"
}
