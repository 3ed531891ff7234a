package worker

import (
	"encoding/json"
	"log"
	"net/http"

	"affiliate-video-server/modules/common/database"
	"affiliate-video-server/modules/common/model"
	redisutil "affiliate-video-server/modules/common/redis"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

// CancelHandler raises the cooperative cancel flag for a run.
type CancelHandler struct {
	rdb *redis.Client
	db  *database.Client
}

func NewCancelHandler(rdb *redis.Client, db *database.Client) *CancelHandler {
	if rdb == nil || db == nil {
		log.Println("❌ [CancelHandler] Requires Redis and database clients")
		return nil
	}
	return &CancelHandler{rdb: rdb, db: db}
}

// RegisterRoutes wires the cancel endpoint.
func (h *CancelHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/runs/{runId}/cancel", h.CancelRun).Methods("POST", "OPTIONS")
	log.Println("✅ [CancelHandler] Route registered: POST /api/runs/{runId}/cancel")
}

// CancelRun - POST /api/runs/{runId}/cancel
func (h *CancelHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	runID := mux.Vars(r)["runId"]
	if runID == "" {
		http.Error(w, `{"error": "runId is required"}`, http.StatusBadRequest)
		return
	}

	log.Printf("🛑 [CancelHandler] Cancel requested for run: %s", runID)

	run, err := h.db.FetchRun(runID)
	if err != nil {
		log.Printf("❌ [CancelHandler] Run not found: %s", runID)
		http.Error(w, `{"error": "Run not found"}`, http.StatusNotFound)
		return
	}

	// A finished run has nothing left to stop.
	if run.RunStatus == model.StatusCompleted || run.RunStatus == model.StatusUserCancelled {
		log.Printf("⚠️ [CancelHandler] Run already %s: %s", run.RunStatus, runID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":         false,
			"message":         "Run already " + run.RunStatus,
			"run_id":          runID,
			"run_status":      run.RunStatus,
			"completed_slots": run.CompletedSlots,
		})
		return
	}

	if err := redisutil.SetRunCancelled(r.Context(), h.rdb, runID); err != nil {
		log.Printf("❌ [CancelHandler] Failed to set cancel flag: %v", err)
		http.Error(w, `{"error": "Failed to set cancel flag"}`, http.StatusInternalServerError)
		return
	}

	log.Printf("✅ [CancelHandler] Cancel flag set for run: %s (current status: %s, completed: %d)",
		runID, run.RunStatus, run.CompletedSlots)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":         true,
		"message":         "Cancel request sent. Run will stop after the current slot.",
		"run_id":          runID,
		"current_status":  run.RunStatus,
		"completed_slots": run.CompletedSlots,
		"total_slots":     run.TotalSlots,
	})
}
