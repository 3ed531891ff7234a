package generate

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"affiliate-video-server/modules/brief"
	"affiliate-video-server/modules/common/database"
	"affiliate-video-server/modules/common/model"
	"affiliate-video-server/modules/common/storage"
	"github.com/gorilla/mux"
)

// Handler serves run state, single-slot regeneration and brief
// generation for runs held by the Manager.
type Handler struct {
	manager *Manager
	db      *database.Client
	briefs  brief.Generator
	storage *storage.Client
}

func NewHandler(manager *Manager, db *database.Client, briefs brief.Generator) *Handler {
	return &Handler{
		manager: manager,
		db:      db,
		briefs:  briefs,
		storage: storage.NewClient(),
	}
}

// RegisterRoutes wires the run endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/runs/{runId}", h.GetRun).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/runs/{runId}/slots/{slot}/regenerate", h.RegenerateSlot).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/runs/{runId}/slots/{slot}/brief", h.GenerateBrief).Methods("POST", "OPTIONS")
	log.Println("✅ Run routes registered: GET /api/runs/{runId}, POST .../regenerate, POST .../brief")
}

// RunResponse - GET /api/runs/{runId} payload
type RunResponse struct {
	RunID  string       `json:"run_id"`
	Status string       `json:"status"`
	Slots  []ResultItem `json:"slots"`
}

// GetRun - GET /api/runs/{runId}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	runID := mux.Vars(r)["runId"]

	if engine, ok := h.manager.Get(runID); ok {
		json.NewEncoder(w).Encode(RunResponse{
			RunID:  runID,
			Status: engine.Status(),
			Slots:  engine.Store().Snapshot(),
		})
		return
	}

	// Fall back to the database for evicted runs.
	run, err := h.db.FetchRun(runID)
	if err != nil {
		http.Error(w, `{"error": "run not found"}`, http.StatusNotFound)
		return
	}
	results, err := h.db.FetchResults(runID)
	if err != nil {
		http.Error(w, `{"error": "failed to load results"}`, http.StatusInternalServerError)
		return
	}

	slots := make([]ResultItem, len(results))
	for i, res := range results {
		item := ResultItem{ID: res.ResultID, SlotIndex: res.SlotIndex}
		if res.ImageURL != nil {
			item.ImageURL = *res.ImageURL
		}
		if res.MimeType != nil {
			item.MimeType = *res.MimeType
		}
		if res.ErrorMessage != nil {
			item.Error = *res.ErrorMessage
		}
		if res.Brief != nil {
			if raw, err := json.Marshal(res.Brief); err == nil {
				item.Brief = raw
			}
		}
		slots[i] = item
	}

	json.NewEncoder(w).Encode(RunResponse{RunID: runID, Status: run.RunStatus, Slots: slots})
}

// RegenerateSlot - POST /api/runs/{runId}/slots/{slot}/regenerate
func (h *Handler) RegenerateSlot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	runID, slot, engine, ok := h.resolveSlot(w, r)
	if !ok {
		return
	}

	if engine.Status() == model.StatusProcessing {
		http.Error(w, `{"error": "run is still processing"}`, http.StatusConflict)
		return
	}

	log.Printf("📥 [Runs] Regeneration requested: run %s slot %d", runID, slot)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := engine.RegenerateSlot(ctx, slot); err != nil {
			log.Printf("❌ [Runs] Regeneration of run %s slot %d failed: %v", runID, slot, err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"run_id":  runID,
		"slot":    slot,
	})
}

// GenerateBrief - POST /api/runs/{runId}/slots/{slot}/brief
func (h *Handler) GenerateBrief(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	runID, slot, engine, ok := h.resolveSlot(w, r)
	if !ok {
		return
	}

	item, exists := engine.Store().Item(slot)
	if !exists || item.ImageURL == "" {
		http.Error(w, `{"error": "slot has no generated image"}`, http.StatusConflict)
		return
	}

	image := engine.SlotImageRef(slot)
	if image == nil {
		// Engine survived a restart without bytes: refetch from storage.
		data, mime, err := h.storage.DownloadImage(r.Context(), item.ImageURL)
		if err != nil {
			log.Printf("❌ [Runs] Failed to fetch slot image for brief: %v", err)
			http.Error(w, `{"error": "failed to load slot image"}`, http.StatusInternalServerError)
			return
		}
		image = &model.ImageRef{Data: data, MimeType: mime}
	}

	previousScript := h.previousScript(engine, slot)

	engine.applyAndBroadcast(r.Context(), slot, Patch{IsLoading: boolPtr(true), ClearError: true})

	data, err := h.briefs.Generate(r.Context(), image, engine.Input(), previousScript)
	if err != nil {
		log.Printf("❌ [Runs] Brief generation failed for run %s slot %d: %v", runID, slot, err)
		engine.applyAndBroadcast(r.Context(), slot, Patch{
			IsLoading: boolPtr(false),
			Error:     strPtr("Gagal membuat brief."),
		})
		http.Error(w, `{"error": "brief generation failed"}`, http.StatusBadGateway)
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"error": "failed to encode brief"}`, http.StatusInternalServerError)
		return
	}
	engine.SetBrief(r.Context(), slot, raw)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"run_id":  runID,
		"slot":    slot,
		"brief":   data,
	})
}

// previousScript decodes the store's existing briefs and finds the
// storytelling continuation source for a slot.
func (h *Handler) previousScript(engine *Engine, slot int) string {
	items := engine.Store().Snapshot()
	briefs := make([]*brief.Data, len(items))
	for i, item := range items {
		if item.Brief == nil {
			continue
		}
		var data brief.Data
		if err := json.Unmarshal(item.Brief, &data); err == nil {
			briefs[i] = &data
		}
	}
	return brief.PreviousScript(engine.Input(), slot, briefs)
}

func (h *Handler) resolveSlot(w http.ResponseWriter, r *http.Request) (string, int, *Engine, bool) {
	vars := mux.Vars(r)
	runID := vars["runId"]

	slot, err := strconv.Atoi(vars["slot"])
	if err != nil || slot < 0 {
		http.Error(w, `{"error": "invalid slot index"}`, http.StatusBadRequest)
		return "", 0, nil, false
	}

	engine, ok := h.manager.Get(runID)
	if !ok {
		http.Error(w, `{"error": "run not active; only in-memory runs support this operation"}`, http.StatusNotFound)
		return "", 0, nil, false
	}
	if slot >= engine.Store().Len() {
		http.Error(w, `{"error": "slot index out of range"}`, http.StatusBadRequest)
		return "", 0, nil, false
	}
	return runID, slot, engine, true
}
