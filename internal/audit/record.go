// Package audit is the fire-and-forget side channel for completed analyses.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/logger"
	"github.com/vaibhav1874/TrueVail/internal/models"
)

const previewChars = 200

// Input kinds
const (
	InputText  = "text"
	InputURL   = "url"
	InputMedia = "media"
)

// Record is the audit event emitted for every analysis
type Record struct {
	ID            string                 `json:"id"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Mode          string                 `json:"mode"`
	InputKind     string                 `json:"input_kind"`
	InputPreview  string                 `json:"input_preview"`
	Status        string                 `json:"status"`
	Confidence    float64                `json:"confidence"`
	PrivacyRisk   string                 `json:"privacy_risk"`
	Source        string                 `json:"source"`
	DurationMs    int64                  `json:"duration_ms"`
	CreatedAt     time.Time              `json:"created_at"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// NewRecord builds the audit event for one finished analysis
func NewRecord(correlationID string, req analysis.Request, res analysis.Result, elapsed time.Duration) Record {
	kind := InputText
	preview := req.RawInput
	switch {
	case req.HasMedia():
		kind = InputMedia
		preview = req.Media.Filename
	case analysis.IsURL(req.RawInput):
		kind = InputURL
	}

	return Record{
		ID:            uuid.NewString(),
		CorrelationID: correlationID,
		Mode:          string(req.Mode),
		InputKind:     kind,
		InputPreview:  logger.TruncateForLog(preview, previewChars),
		Status:        res.Status,
		Confidence:    res.Confidence,
		PrivacyRisk:   res.PrivacyRisk,
		Source:        res.Source,
		DurationMs:    elapsed.Milliseconds(),
		CreatedAt:     time.Now().UTC(),
		Details:       res.Details,
	}
}

// ToModel converts the event into its database row
func (r Record) ToModel() (*models.AnalysisRecord, error) {
	var details datatypes.JSON
	if len(r.Details) > 0 {
		raw, err := json.Marshal(r.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize details: %w", err)
		}
		details = datatypes.JSON(raw)
	}
	return &models.AnalysisRecord{
		ID:            r.ID,
		CorrelationID: r.CorrelationID,
		Mode:          r.Mode,
		InputKind:     r.InputKind,
		InputPreview:  r.InputPreview,
		Status:        r.Status,
		Confidence:    r.Confidence,
		PrivacyRisk:   r.PrivacyRisk,
		Source:        r.Source,
		DurationMs:    r.DurationMs,
		CreatedAt:     r.CreatedAt,
		Details:       details,
	}, nil
}

// Decode parses a JSON-encoded record
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to decode audit record: %w", err)
	}
	if r.Mode == "" || r.Status == "" {
		return Record{}, fmt.Errorf("audit record missing mode or status")
	}
	return r, nil
}
