package model

// ImageRef is an in-memory image reference. Data marshals as base64, so
// the same struct rides the HTTP request body and the run_input_data
// JSONB column.
type ImageRef struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// RunInput is the full configuration of a generation run, snapshotted at
// enqueue time. A running loop never sees later edits.
type RunInput struct {
	CampaignTitle      string `json:"campaign_title"`
	ProductDescription string `json:"product_description"`
	ProductLink        string `json:"product_link"`
	ProductReviews     string `json:"product_reviews"`

	ProductCategory string `json:"product_category"`
	CameraStyle     string `json:"camera_style"`
	CameraAngle     string `json:"camera_angle"`
	Mood            string `json:"mood"`
	LocationType    string `json:"location_type"`
	SubLocation     string `json:"sub_location"`
	CustomPrompt    string `json:"custom_prompt"`

	VoiceoverStyle string `json:"voiceover_style"` // "Simpel" or "Detail"
	Storytelling   bool   `json:"storytelling"`
	IsApparel      bool   `json:"is_apparel"`
	NoModelMode    bool   `json:"no_model_mode"`

	NumConcepts     int `json:"num_concepts"`
	FaceStrength    int `json:"face_strength"`
	ProductStrength int `json:"product_strength"`

	// PresentationStyle applies to product-only runs: "hand" or "placed".
	PresentationStyle string `json:"presentation_style"`

	// AnchorPolicy is "chain" or "first-only". Empty falls back to the
	// server default; storytelling always forces "chain".
	AnchorPolicy string `json:"anchor_policy"`

	ModelImages      []ImageRef `json:"model_images"`
	CroppedFace      *ImageRef  `json:"cropped_face"`
	ProductImages    []ImageRef `json:"product_images"`
	CustomBackground *ImageRef  `json:"custom_background"`
}

// MainProductImage returns the first product reference, the one every
// image call attaches.
func (in *RunInput) MainProductImage() *ImageRef {
	for i := range in.ProductImages {
		if len(in.ProductImages[i].Data) > 0 {
			return &in.ProductImages[i]
		}
	}
	return nil
}

// MainModelImage returns the first full-body model reference.
func (in *RunInput) MainModelImage() *ImageRef {
	for i := range in.ModelImages {
		if len(in.ModelImages[i].Data) > 0 {
			return &in.ModelImages[i]
		}
	}
	return nil
}
