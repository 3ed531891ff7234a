package model

import "time"

// GenerationRun - generation_runs table row. RunInputData holds the full
// run configuration as JSONB so a run can be replayed or regenerated.
type GenerationRun struct {
	RunID          string                 `json:"run_id"`
	RunStatus      string                 `json:"run_status"`
	TotalSlots     int                    `json:"total_slots"`
	CompletedSlots int                    `json:"completed_slots"`
	FailedSlots    int                    `json:"failed_slots"`
	RunInputData   map[string]interface{} `json:"run_input_data"`
	ErrorMessage   *string                `json:"error_message"`
	CreatedAt      time.Time              `json:"created_at"`
	StartedAt      *time.Time             `json:"started_at"`
	CompletedAt    *time.Time             `json:"completed_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// GenerationResult - generation_results table row, one per slot. Prompt
// keeps the exact final prompt used so single-slot regeneration reuses it
// verbatim. Brief is the production brief JSONB, nil until generated.
type GenerationResult struct {
	ResultID     string                 `json:"result_id"`
	RunID        string                 `json:"run_id"`
	SlotIndex    int                    `json:"slot_index"`
	ImageURL     *string                `json:"image_url"`
	MimeType     *string                `json:"mime_type"`
	Prompt       *string                `json:"prompt"`
	Brief        map[string]interface{} `json:"brief"`
	ErrorMessage *string                `json:"error_message"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

const (
	StatusPending       = "pending"
	StatusProcessing    = "processing"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
	StatusUserCancelled = "user_cancelled"
)
