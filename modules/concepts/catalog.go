package concepts

import (
	"context"
	"fmt"
	"log"
	"strings"

	"affiliate-video-server/modules/common/model"
)

// SceneTemplate is a reusable scene skeleton. Placeholders: {location}
// is replaced with the run's sub-location, {mood} with its mood.
type SceneTemplate struct {
	Name string
	Text string
}

// influencerTemplates cover runs with a model. Written in the same
// register as director output so static and AI runs look alike
// downstream.
var influencerTemplates = []SceneTemplate{
	{
		Name: "unboxing-excitement",
		Text: "The influencer sits cross-legged in {location}, eagerly tearing open the product packaging with wide, delighted eyes, holding the product up toward the camera as soft light catches its details, the whole frame radiating a {mood} feeling.",
	},
	{
		Name: "daily-routine",
		Text: "A candid moment in {location}: the influencer naturally reaches for the product mid-routine, smiling at the camera as if sharing a secret with a close friend, the scene styled with a {mood} atmosphere.",
	},
	{
		Name: "first-impression",
		Text: "The influencer leans into the camera in {location}, holding the product close to the lens and pointing at its standout feature, mouth open in genuine surprise, surrounded by a {mood} vibe.",
	},
	{
		Name: "before-after",
		Text: "In {location}, the influencer gestures between the product and the visible result of using it, eyebrows raised in an exaggerated can-you-believe-this expression, with {mood} energy filling the frame.",
	},
	{
		Name: "close-friend-recommendation",
		Text: "The influencer relaxes in {location}, casually cradling the product while talking straight into the camera, one hand tapping the product's best detail, the scene kept intimate and {mood}.",
	},
	{
		Name: "on-the-go",
		Text: "Mid-stride through {location}, the influencer pulls the product out and flashes it to the camera with an enthusiastic grin, motion blur in the background underscoring a {mood} moment.",
	},
}

// productTemplates cover product-only runs.
var productTemplates = []SceneTemplate{
	{
		Name: "hero-pedestal",
		Text: "The product stands alone as the hero in {location}, dramatic directional light carving out its silhouette against softly blurred surroundings, composed with a {mood} sensibility.",
	},
	{
		Name: "floating-minimal",
		Text: "The product appears to float just above a clean surface in {location}, a single accent shadow anchoring it, negative space and a {mood} palette doing the talking.",
	},
	{
		Name: "texture-contrast",
		Text: "A tight composition in {location} pairs the product with a strongly contrasting natural texture, raking light revealing every material detail, the overall tone unmistakably {mood}.",
	},
	{
		Name: "lifestyle-context",
		Text: "The product rests naturally within {location} among carefully chosen everyday props that hint at its use, warm depth of field pulling the eye straight to it with a {mood} finish.",
	},
	{
		Name: "reflection-play",
		Text: "Set in {location}, the product sits on a subtly reflective surface that doubles its best angle, a gradient backdrop fading into a {mood} glow.",
	},
	{
		Name: "ingredient-story",
		Text: "In {location}, the product is surrounded by a scattered arrangement of elements that tell its origin story, top-down framing and a {mood} color grade tying the scene together.",
	},
}

// StaticSource cycles the template catalog instead of calling the model.
// No network, so it also serves as the offline fallback.
type StaticSource struct{}

func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

// Concepts renders count templates for the run, cycling when count
// exceeds the catalog.
func (s *StaticSource) Concepts(ctx context.Context, in *model.RunInput, count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("concept count must be positive, got %d", count)
	}

	templates := influencerTemplates
	if in.NoModelMode {
		templates = productTemplates
	}

	location := in.SubLocation
	if location == "" {
		location = in.LocationType
	}

	prompts := make([]string, count)
	for i := 0; i < count; i++ {
		tpl := templates[i%len(templates)]
		text := strings.ReplaceAll(tpl.Text, "{location}", location)
		text = strings.ReplaceAll(text, "{mood}", in.Mood)
		prompts[i] = text
	}

	log.Printf("✅ [Concepts] Served %d static scene concepts", count)
	return prompts, nil
}
