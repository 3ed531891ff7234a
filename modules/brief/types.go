// Package brief generates the structured production brief for a slot
// image: visual parameters, the Indonesian voiceover script and the
// marketing block, in one schema-constrained model call.
package brief

// Data is the full production brief for one video concept.
type Data struct {
	PromptVersion        string `json:"prompt_version,omitempty"`
	GenerationTimestamp  string `json:"generation_timestamp,omitempty"`
	GeneratedContentType string `json:"generated_content_type,omitempty"`
	VideoID              string `json:"video_id,omitempty"`
	Title                string `json:"title"`
	Description          string `json:"description"`

	ModelInputData   ModelInputData   `json:"model_input_data,omitempty"`
	ProductInputData ProductInputData `json:"product_input_data,omitempty"`

	VisualGenerationParameters        VisualParameters    `json:"visual_generation_parameters"`
	AudioGenerationParameters         AudioParameters     `json:"audio_generation_parameters"`
	MarketingAndEngagementParameters  MarketingParameters `json:"marketing_and_engagement_parameters"`
}

type ModelInputData struct {
	OriginalImageURL string           `json:"original_image_url,omitempty"`
	DetectedFeatures DetectedFeatures `json:"detected_features,omitempty"`
}

type DetectedFeatures struct {
	Gender                   string                `json:"gender,omitempty"`
	AgeRange                 string                `json:"age_range,omitempty"`
	EthnicityLikelihood      []EthnicityLikelihood `json:"ethnicity_likelihood,omitempty"`
	HairColor                string                `json:"hair_color,omitempty"`
	HairStyle                string                `json:"hair_style,omitempty"`
	FacialStructureKeywords  []string              `json:"facial_structure_keywords,omitempty"`
	BodyType                 string                `json:"body_type,omitempty"`
	SkinTone                 string                `json:"skin_tone,omitempty"`
}

type EthnicityLikelihood struct {
	Name       string  `json:"name"`
	Likelihood float64 `json:"likelihood"`
}

type ProductInputData struct {
	OriginalImageURL        string           `json:"original_image_url,omitempty"`
	UserProvidedDescription string           `json:"user_provided_description,omitempty"`
	AnalyzedFeatures        AnalyzedFeatures `json:"analyzed_features,omitempty"`
}

type AnalyzedFeatures struct {
	ProductName               string                  `json:"product_name,omitempty"`
	ProductCategory           string                  `json:"product_category,omitempty"`
	BrandName                 string                  `json:"brand_name,omitempty"`
	PrimaryColor              string                  `json:"primary_color,omitempty"`
	MaterialComposition       []string                `json:"material_composition,omitempty"`
	KeyFunctions              []string                `json:"key_functions,omitempty"`
	DesignElements            []string                `json:"design_elements,omitempty"`
	UniqueSellingPropositions []string                `json:"unique_selling_propositions,omitempty"`
	MissingDetailAssessment   MissingDetailAssessment `json:"missing_detail_assessment,omitempty"`
}

type MissingDetailAssessment struct {
	ClarityScore    float64         `json:"clarity_score,omitempty"`
	InferredDetails InferredDetails `json:"inferred_details,omitempty"`
}

type InferredDetails struct {
	DisplayType         string `json:"display_type,omitempty"`
	BatteryLifeEstimate string `json:"battery_life_estimate,omitempty"`
}

type VisualParameters struct {
	ImageStylePreset         string                   `json:"image_style_preset,omitempty"`
	AspectRatio              string                   `json:"aspect_ratio,omitempty"`
	Resolution               string                   `json:"resolution,omitempty"`
	CameraEmulation          string                   `json:"camera_emulation,omitempty"`
	ModelPoseAndExpression   ModelPoseAndExpression   `json:"model_pose_and_expression,omitempty"`
	ProductPlacementAndFocus ProductPlacementAndFocus `json:"product_placement_and_focus,omitempty"`
	SceneAndEnvironment      SceneAndEnvironment      `json:"scene_and_environment,omitempty"`
	LightingAndColorGrading  LightingAndColorGrading  `json:"lighting_and_color_grading,omitempty"`
	VideoSpecificElements    VideoSpecificElements    `json:"video_specific_elements,omitempty"`
}

type ModelPoseAndExpression struct {
	OverallMood      string `json:"overall_mood,omitempty"`
	BodyPose         string `json:"body_pose,omitempty"`
	HandPlacement    string `json:"hand_placement,omitempty"`
	FacialExpression string `json:"facial_expression,omitempty"`
}

type ProductPlacementAndFocus struct {
	PrimaryProductVisibility   string `json:"primary_product_visibility,omitempty"`
	SecondaryProductVisibility string `json:"secondary_product_visibility,omitempty"`
	FocusDepth                 string `json:"focus_depth,omitempty"`
}

type SceneAndEnvironment struct {
	LocationType       string   `json:"location_type,omitempty"`
	BackgroundElements []string `json:"background_elements,omitempty"`
	TimeOfDay          string   `json:"time_of_day,omitempty"`
	WeatherConditions  string   `json:"weather_conditions,omitempty"`
	PropsInScene       []string `json:"props_in_scene,omitempty"`
}

type LightingAndColorGrading struct {
	LightSourceType  string `json:"light_source_type,omitempty"`
	LightDirection   string `json:"light_direction,omitempty"`
	ColorPaletteMood string `json:"color_palette_mood,omitempty"`
	ContrastLevel    string `json:"contrast_level,omitempty"`
	SaturationLevel  string `json:"saturation_level,omitempty"`
	SharpeningAmount string `json:"sharpening_amount,omitempty"`
}

type VideoSpecificElements struct {
	CameraMovements             []string      `json:"camera_movements,omitempty"`
	TransitionStyle             string        `json:"transition_style,omitempty"`
	EditingPacing               string        `json:"editing_pacing,omitempty"`
	TextOverlaysRecommendations []TextOverlay `json:"text_overlays_recommendations,omitempty"`
	VisualEffectsSuggestions    []string      `json:"visual_effects_suggestions,omitempty"`
}

type TextOverlay struct {
	Text      string `json:"text,omitempty"`
	Position  string `json:"position,omitempty"`
	FontStyle string `json:"font_style,omitempty"`
	FontColor string `json:"font_color,omitempty"`
	BgColor   string `json:"bg_color,omitempty"`
	Animation string `json:"animation,omitempty"`
}

type AudioParameters struct {
	Voiceover       Voiceover       `json:"voiceover"`
	BackgroundMusic BackgroundMusic `json:"background_music,omitempty"`
}

type Voiceover struct {
	Language           string       `json:"language,omitempty"`
	Accent             string       `json:"accent,omitempty"`
	Tone               string       `json:"tone,omitempty"`
	SpeakingRate       string       `json:"speaking_rate,omitempty"`
	PitchAdjustment    string       `json:"pitch_adjustment,omitempty"`
	ScriptLines        []ScriptLine `json:"script_lines"`
	CustomVoiceModelID string       `json:"custom_voice_model_id,omitempty"`
}

type ScriptLine struct {
	SpeakerTag string `json:"speaker_tag,omitempty"`
	Text       string `json:"text"`
}

type BackgroundMusic struct {
	Genre            string   `json:"genre,omitempty"`
	Mood             string   `json:"mood,omitempty"`
	Intensity        string   `json:"intensity,omitempty"`
	VolumeLevel      string   `json:"volume_level,omitempty"`
	TrackSuggestions []string `json:"track_suggestions,omitempty"`
}

type MarketingParameters struct {
	CallToAction         CallToAction `json:"call_to_action,omitempty"`
	HashtagsSuggestion   []string     `json:"hashtags_suggestion,omitempty"`
	TargetAudience       string       `json:"target_audience,omitempty"`
	PlatformOptimization []string     `json:"platform_optimization,omitempty"`
}

type CallToAction struct {
	Type                 string `json:"type,omitempty"`
	DisplayText          string `json:"display_text,omitempty"`
	TargetURLPlaceholder string `json:"target_url_placeholder,omitempty"`
}

// Script flattens the voiceover lines into one string, the form the
// storytelling continuation feeds into the next brief.
func (d *Data) Script() string {
	if d == nil {
		return ""
	}
	var out string
	for i, line := range d.AudioGenerationParameters.Voiceover.ScriptLines {
		if i > 0 {
			out += " "
		}
		out += line.Text
	}
	return out
}
