package worker

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"affiliate-video-server/modules/common/database"
	"affiliate-video-server/modules/common/model"
	redisutil "affiliate-video-server/modules/common/redis"
	"affiliate-video-server/modules/generate"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

// EnqueueHandler creates run rows and pushes run IDs onto the queue.
type EnqueueHandler struct {
	rdb *redis.Client
	db  *database.Client
}

// EnqueueResponse - POST /api/runs response
type EnqueueResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	RunID         string `json:"run_id,omitempty"`
	TotalSlots    int    `json:"total_slots,omitempty"`
	QueuePosition int64  `json:"queuePosition,omitempty"`
}

func NewEnqueueHandler(rdb *redis.Client, db *database.Client) *EnqueueHandler {
	if rdb == nil || db == nil {
		log.Println("⚠️ [Enqueue] Handler requires Redis and database clients")
		return nil
	}
	return &EnqueueHandler{rdb: rdb, db: db}
}

// RegisterRoutes wires the enqueue endpoint.
func (h *EnqueueHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/runs", h.HandleEnqueue).Methods("POST", "OPTIONS")
	log.Println("✅ Enqueue route registered: POST /api/runs")
}

// HandleEnqueue - POST /api/runs
func (h *EnqueueHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var input model.RunInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("❌ [Enqueue] Invalid request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(EnqueueResponse{Success: false, Error: "Invalid request body"})
		return
	}

	generate.NormalizeInput(&input)
	if err := generate.ValidateInput(&input); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(EnqueueResponse{Success: false, Error: err.Error()})
		return
	}

	runID := uuid.New().String()
	totalSlots := input.NumConcepts

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	// Snapshot the full input so the worker and regeneration replay it.
	inputData, err := encodeRunInput(&input)
	if err != nil {
		log.Printf("❌ [Enqueue] Failed to encode run input: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(EnqueueResponse{Success: false, Error: "Failed to encode run input"})
		return
	}

	if err := h.db.CreateRun(ctx, runID, totalSlots, inputData); err != nil {
		log.Printf("❌ [Enqueue] Failed to create run row: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(EnqueueResponse{Success: false, Error: "Failed to create run"})
		return
	}

	resultIDs := make([]string, totalSlots)
	for i := range resultIDs {
		resultIDs[i] = uuid.New().String()
	}
	if err := h.db.CreateResultSlots(ctx, runID, resultIDs); err != nil {
		log.Printf("❌ [Enqueue] Failed to create result slots: %v", err)
		h.db.UpdateRunStatus(ctx, runID, model.StatusFailed, "failed to create result slots")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(EnqueueResponse{Success: false, Error: "Failed to create result slots"})
		return
	}

	if err := redisutil.EnqueueRun(ctx, h.rdb, runID); err != nil {
		log.Printf("❌ [Enqueue] Redis LPUSH failed: %v", err)
		h.db.UpdateRunStatus(ctx, runID, model.StatusFailed, "failed to enqueue run")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(EnqueueResponse{Success: false, Error: err.Error()})
		return
	}

	queueLen, _ := h.rdb.LLen(ctx, redisutil.RunQueueKey).Result()
	log.Printf("✅ [Enqueue] Run %s enqueued (%d slots, position: %d)", runID, totalSlots, queueLen)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(EnqueueResponse{
		Success:       true,
		Message:       "Run enqueued successfully",
		RunID:         runID,
		TotalSlots:    totalSlots,
		QueuePosition: queueLen,
	})
}

// encodeRunInput round-trips the typed input into the JSONB shape the
// runs table stores.
func encodeRunInput(in *model.RunInput) (map[string]interface{}, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
