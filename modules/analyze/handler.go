package analyze

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"affiliate-video-server/modules/common/generr"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the product analysis endpoint.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/analyze-product", h.AnalyzeProduct).Methods("POST", "OPTIONS")
	log.Println("✅ Analyze route registered: POST /api/analyze-product")
}

// AnalyzeRequest - POST /api/analyze-product body
type AnalyzeRequest struct {
	ProductLink string `json:"product_link"`
}

// AnalyzeProduct - POST /api/analyze-product
func (h *Handler) AnalyzeProduct(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	result, err := h.service.Analyze(r.Context(), req.ProductLink)
	if err != nil {
		var ve *generr.ValidationError
		switch {
		case errors.As(err, &ve):
			http.Error(w, `{"error": "`+ve.Message+`"}`, http.StatusBadRequest)
		case generr.IsCredential(err):
			http.Error(w, `{"error": "credential rejected"}`, http.StatusUnauthorized)
		default:
			log.Printf("❌ [Analyze] Extraction failed: %v", err)
			http.Error(w, `{"error": "product analysis failed"}`, http.StatusBadGateway)
		}
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"product": result,
	})
}
