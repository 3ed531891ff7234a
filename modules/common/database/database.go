package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"affiliate-video-server/modules/common/config"
	"affiliate-video-server/modules/common/model"
	"github.com/supabase-community/supabase-go"
)

const (
	runsTable    = "generation_runs"
	resultsTable = "generation_results"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient creates the Supabase database client.
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// CreateRun inserts a new generation run row in pending state.
func (c *Client) CreateRun(ctx context.Context, runID string, totalSlots int, inputData map[string]interface{}) error {
	log.Printf("💾 Creating run record: %s (%d slots)", runID, totalSlots)

	row := map[string]interface{}{
		"run_id":         runID,
		"run_status":     model.StatusPending,
		"total_slots":    totalSlots,
		"run_input_data": inputData,
	}

	_, _, err := c.supabase.From(runsTable).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FetchRun loads a run row by ID.
func (c *Client) FetchRun(runID string) (*model.GenerationRun, error) {
	log.Printf("🔍 Fetching run from Supabase: %s", runID)

	var runs []model.GenerationRun

	data, _, err := c.supabase.From(runsTable).
		Select("*", "exact", false).
		Eq("run_id", runID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query Supabase: %w", err)
	}

	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	run := &runs[0]
	log.Printf("✅ Run fetched: %s (status: %s, total_slots: %d)",
		run.RunID, run.RunStatus, run.TotalSlots)

	return run, nil
}

// UpdateRunStatus moves a run through its lifecycle. Timestamps follow
// the status: processing stamps started_at, terminal states stamp
// completed_at.
func (c *Client) UpdateRunStatus(ctx context.Context, runID string, status string, errorMessage string) error {
	log.Printf("📝 Updating run %s status to: %s", runID, status)

	updateData := map[string]interface{}{
		"run_status": status,
		"updated_at": "now()",
	}
	if status == model.StatusProcessing {
		updateData["started_at"] = "now()"
	} else if status == model.StatusCompleted || status == model.StatusFailed || status == model.StatusUserCancelled {
		updateData["completed_at"] = "now()"
	}
	if errorMessage != "" {
		updateData["error_message"] = errorMessage
	}

	_, _, err := c.supabase.From(runsTable).
		Update(updateData, "", "").
		Eq("run_id", runID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

// UpdateRunProgress writes the completed/failed slot counters.
func (c *Client) UpdateRunProgress(ctx context.Context, runID string, completed, failed int) error {
	updateData := map[string]interface{}{
		"completed_slots": completed,
		"failed_slots":    failed,
		"updated_at":      "now()",
	}

	_, _, err := c.supabase.From(runsTable).
		Update(updateData, "", "").
		Eq("run_id", runID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update run progress: %w", err)
	}
	return nil
}

// CreateResultSlots inserts one result row per slot, all empty, so slot
// updates are plain updates keyed by (run_id, slot_index).
func (c *Client) CreateResultSlots(ctx context.Context, runID string, resultIDs []string) error {
	rows := make([]map[string]interface{}, len(resultIDs))
	for i, id := range resultIDs {
		rows[i] = map[string]interface{}{
			"result_id":  id,
			"run_id":     runID,
			"slot_index": i,
		}
	}

	_, _, err := c.supabase.From(resultsTable).
		Insert(rows, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert result slots: %w", err)
	}
	log.Printf("💾 Created %d result slots for run %s", len(resultIDs), runID)
	return nil
}

// UpdateResultSlot patches a single slot row. Only the provided fields
// change; other slots are never touched.
func (c *Client) UpdateResultSlot(ctx context.Context, runID string, slotIndex int, fields map[string]interface{}) error {
	fields["updated_at"] = "now()"

	_, _, err := c.supabase.From(resultsTable).
		Update(fields, "", "").
		Eq("run_id", runID).
		Eq("slot_index", fmt.Sprintf("%d", slotIndex)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update result slot %d: %w", slotIndex, err)
	}
	return nil
}

// FetchResults returns all slot rows for a run ordered by slot index.
func (c *Client) FetchResults(runID string) ([]model.GenerationResult, error) {
	var results []model.GenerationResult

	data, _, err := c.supabase.From(resultsTable).
		Select("*", "exact", false).
		Eq("run_id", runID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].SlotIndex < results[j].SlotIndex
	})
	return results, nil
}

// FetchResult returns a single slot row.
func (c *Client) FetchResult(runID string, slotIndex int) (*model.GenerationResult, error) {
	var results []model.GenerationResult

	data, _, err := c.supabase.From(resultsTable).
		Select("*", "exact", false).
		Eq("run_id", runID).
		Eq("slot_index", fmt.Sprintf("%d", slotIndex)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query result: %w", err)
	}

	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("result not found: run %s slot %d", runID, slotIndex)
	}
	return &results[0], nil
}
