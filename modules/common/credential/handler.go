package credential

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler lets a client replace or drop the stored credential, typically
// after a run failed with a credential rejection.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes wires the credential endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/credential", h.SetCredential).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/credential", h.ClearCredential).Methods("DELETE")
	r.HandleFunc("/api/credential/status", h.CredentialStatus).Methods("GET", "OPTIONS")
	log.Println("✅ Credential routes registered: POST/DELETE /api/credential, GET /api/credential/status")
}

// SetCredential - POST /api/credential
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.store.Set(r.Context(), req.APIKey); err != nil {
		http.Error(w, `{"error": "`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	log.Println("🔑 [Credential] Stored credential replaced")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// ClearCredential - DELETE /api/credential
func (h *Handler) ClearCredential(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := h.store.Clear(r.Context()); err != nil {
		http.Error(w, `{"error": "failed to clear credential"}`, http.StatusInternalServerError)
		return
	}

	log.Println("🧹 [Credential] Stored credential cleared")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// CredentialStatus - GET /api/credential/status
func (h *Handler) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	value, err := h.store.Get(r.Context())
	if err != nil {
		http.Error(w, `{"error": "failed to read credential"}`, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"configured": value != ""})
}
