package options

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler serves the option catalogs.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// OptionsResponse - GET /api/options payload
type OptionsResponse struct {
	CameraStyles        []string            `json:"camera_styles"`
	CameraAngles        []string            `json:"camera_angles"`
	Moods               []string            `json:"moods"`
	LocationTypes       []string            `json:"location_types"`
	Locations           map[string][]string `json:"locations"`
	ProductCategories   []string            `json:"product_categories"`
	VoiceoverStyles     []string            `json:"voiceover_styles"`
	PresentationStyles  []string            `json:"presentation_styles"`
	PresentationPrompts map[string]string   `json:"presentation_prompts"`
}

// RegisterRoutes registers the catalog endpoint.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/options", h.GetOptions).Methods("GET", "OPTIONS")
	log.Println("✅ Options routes registered: GET /api/options")
}

// GetOptions - GET /api/options
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	json.NewEncoder(w).Encode(OptionsResponse{
		CameraStyles:  CameraStyles,
		CameraAngles:  CameraAngles,
		Moods:         Moods,
		LocationTypes: LocationTypes,
		Locations: map[string][]string{
			"Indoor":      IndoorLocations,
			"Outdoor":     OutdoorLocations,
			"Studio Mini": StudioMiniLocations,
		},
		ProductCategories:   ProductCategories,
		VoiceoverStyles:     VoiceoverStyles,
		PresentationStyles:  PresentationStyles,
		PresentationPrompts: PresentationPrompts,
	})
}
