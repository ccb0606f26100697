package model

import "time"

// Record is a persisted extraction result for one document.
type Record struct {
	ID          string               `json:"id"`
	Source      string               `json:"source"` // file path, URL, or "stdin"
	Mode        ExtractionMode       `json:"mode"`
	Fields      ExtractedFields      `json:"fields"`
	Confidences []StrategyConfidence `json:"confidences,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}
