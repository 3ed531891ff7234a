// Package concepts produces the scene concepts a run iterates over: one
// paragraph per slot, either authored by the text model acting as a
// creative director or drawn from the static template catalog.
package concepts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"affiliate-video-server/modules/common/generr"
	"affiliate-video-server/modules/common/model"
	"google.golang.org/genai"
)

// Source yields exactly count scene concepts for a run.
type Source interface {
	Concepts(ctx context.Context, in *model.RunInput, count int) ([]string, error)
}

// StructuredCaller is the slice of the Gemini client the director needs.
type StructuredCaller interface {
	GenerateStructured(ctx context.Context, parts []*genai.Part, schema *genai.Schema) ([]byte, error)
}

// scenePromptsSchema constrains the director response to an array of
// single-field objects so the model cannot smuggle extra prose.
var scenePromptsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"prompts": {
			Type:        genai.TypeArray,
			Description: "An array of unique and creative scene concepts.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"scene_prompt": {
						Type:        genai.TypeString,
						Description: "A single, detailed paragraph describing a visual scene concept for an influencer-style video.",
					},
				},
				Required: []string{"scene_prompt"},
			},
		},
	},
	Required: []string{"prompts"},
}

type scenePromptsPayload struct {
	Prompts []struct {
		ScenePrompt string `json:"scene_prompt"`
	} `json:"prompts"`
}

// DirectorSource asks the text model for concepts.
type DirectorSource struct {
	client StructuredCaller
}

func NewDirectorSource(client StructuredCaller) *DirectorSource {
	return &DirectorSource{client: client}
}

// Concepts runs one structured call and returns exactly count scene
// paragraphs. Any failure here is a ConceptGenerationError so the run
// aborts before touching a single slot.
func (s *DirectorSource) Concepts(ctx context.Context, in *model.RunInput, count int) ([]string, error) {
	log.Printf("🎨 [Concepts] Requesting %d scene concepts from creative director", count)

	prompt := BuildDirectorPrompt(in, count)
	parts := []*genai.Part{genai.NewPartFromText(prompt)}

	raw, err := s.client.GenerateStructured(ctx, parts, scenePromptsSchema)
	if err != nil {
		if generr.IsCredential(generr.Classify(0, err)) {
			return nil, generr.Classify(0, err)
		}
		return nil, &generr.ConceptGenerationError{Err: err}
	}

	var payload scenePromptsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &generr.ConceptGenerationError{
			Err: &generr.ParseError{RawHead: string(raw), Err: err},
		}
	}

	if len(payload.Prompts) != count {
		return nil, &generr.ConceptGenerationError{
			Err: fmt.Errorf("expected %d concepts, got %d", count, len(payload.Prompts)),
		}
	}

	prompts := make([]string, count)
	for i, p := range payload.Prompts {
		if p.ScenePrompt == "" {
			return nil, &generr.ConceptGenerationError{
				Err: fmt.Errorf("concept %d is empty", i),
			}
		}
		prompts[i] = p.ScenePrompt
	}

	log.Printf("✅ [Concepts] Received %d scene concepts", count)
	return prompts, nil
}
