package brief

import "google.golang.org/genai"

func strSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func strArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

// dataSchema constrains the brief call's response. It mirrors Data
// field-for-field; keep the two in sync.
var dataSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"prompt_version":         strSchema(""),
		"generation_timestamp":   strSchema(""),
		"generated_content_type": strSchema(""),
		"video_id":               strSchema(""),
		"title":                  strSchema("A short, catchy title for the video."),
		"description":            strSchema("A concise one-sentence description of the video, under 150 characters."),
		"model_input_data": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"original_image_url": strSchema(""),
				"detected_features": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"gender":    strSchema(""),
						"age_range": strSchema(""),
						"ethnicity_likelihood": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"name":       strSchema("The name of the ethnicity."),
									"likelihood": {Type: genai.TypeNumber, Description: "The likelihood score, from 0 to 1."},
								},
								Required: []string{"name", "likelihood"},
							},
						},
						"hair_color":                strSchema(""),
						"hair_style":                strSchema(""),
						"facial_structure_keywords": strArray(),
						"body_type":                 strSchema(""),
						"skin_tone":                 strSchema(""),
					},
				},
			},
		},
		"product_input_data": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"original_image_url":        strSchema(""),
				"user_provided_description": strSchema(""),
				"analyzed_features": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_name":                strSchema(""),
						"product_category":            strSchema(""),
						"brand_name":                  strSchema(""),
						"primary_color":               strSchema(""),
						"material_composition":        strArray(),
						"key_functions":               strArray(),
						"design_elements":             strArray(),
						"unique_selling_propositions": strArray(),
						"missing_detail_assessment": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"clarity_score": {Type: genai.TypeNumber},
								"inferred_details": {
									Type: genai.TypeObject,
									Properties: map[string]*genai.Schema{
										"display_type":          strSchema(""),
										"battery_life_estimate": strSchema(""),
									},
								},
							},
						},
					},
				},
			},
		},
		"visual_generation_parameters": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"image_style_preset": strSchema(""),
				"aspect_ratio":       strSchema(""),
				"resolution":         strSchema(""),
				"camera_emulation":   strSchema(""),
				"model_pose_and_expression": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"overall_mood":      strSchema(""),
						"body_pose":         strSchema(""),
						"hand_placement":    strSchema(""),
						"facial_expression": strSchema(""),
					},
				},
				"product_placement_and_focus": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"primary_product_visibility":   strSchema(""),
						"secondary_product_visibility": strSchema(""),
						"focus_depth":                  strSchema(""),
					},
				},
				"scene_and_environment": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"location_type":       strSchema(""),
						"background_elements": strArray(),
						"time_of_day":         strSchema(""),
						"weather_conditions":  strSchema(""),
						"props_in_scene":      strArray(),
					},
				},
				"lighting_and_color_grading": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"light_source_type": strSchema(""),
						"light_direction":   strSchema(""),
						"color_palette_mood": strSchema(""),
						"contrast_level":    strSchema(""),
						"saturation_level":  strSchema(""),
						"sharpening_amount": strSchema(""),
					},
				},
				"video_specific_elements": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"camera_movements": strArray(),
						"transition_style": strSchema(""),
						"editing_pacing":   strSchema(""),
						"text_overlays_recommendations": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"text":       strSchema(""),
									"position":   strSchema(""),
									"font_style": strSchema(""),
									"font_color": strSchema(""),
									"bg_color":   strSchema(""),
									"animation":  strSchema(""),
								},
							},
						},
						"visual_effects_suggestions": strArray(),
					},
				},
			},
		},
		"audio_generation_parameters": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"voiceover": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"language":         strSchema(""),
						"accent":           strSchema(""),
						"tone":             strSchema(""),
						"speaking_rate":    strSchema(""),
						"pitch_adjustment": strSchema(""),
						"script_lines": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"speaker_tag": strSchema(""),
									"text":        strSchema("A single line of dialogue for the script. Keep it brief and conversational."),
								},
							},
						},
						"custom_voice_model_id": strSchema("ID for a custom voice model, or null if not used."),
					},
				},
				"background_music": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"genre":             strSchema(""),
						"mood":              strSchema(""),
						"intensity":         strSchema(""),
						"volume_level":      strSchema(""),
						"track_suggestions": strArray(),
					},
				},
			},
		},
		"marketing_and_engagement_parameters": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"call_to_action": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type":                   strSchema(""),
						"display_text":           strSchema(""),
						"target_url_placeholder": strSchema(""),
					},
				},
				"hashtags_suggestion":   strArray(),
				"target_audience":       strSchema(""),
				"platform_optimization": strArray(),
			},
		},
	},
}
