package brief

import (
	"context"
	"encoding/json"
	"log"

	"affiliate-video-server/modules/common/generr"
	"affiliate-video-server/modules/common/model"
	"google.golang.org/genai"
)

// Generator produces the production brief for one slot image.
type Generator interface {
	Generate(ctx context.Context, image *model.ImageRef, in *model.RunInput, previousScript string) (*Data, error)
}

// StructuredCaller is the slice of the Gemini client the generator needs.
type StructuredCaller interface {
	GenerateStructured(ctx context.Context, parts []*genai.Part, schema *genai.Schema) ([]byte, error)
}

// GeminiGenerator runs one schema-constrained text-model call per brief.
type GeminiGenerator struct {
	client StructuredCaller
}

var _ Generator = (*GeminiGenerator)(nil)

func NewGenerator(client StructuredCaller) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Generate attaches the slot image to the brief prompt and parses the
// structured response. A malformed payload is a ParseError, the same
// per-item severity as a failed image.
func (g *GeminiGenerator) Generate(ctx context.Context, image *model.ImageRef, in *model.RunInput, previousScript string) (*Data, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, &generr.ValidationError{Field: "image", Message: "brief generation needs a generated slot image"}
	}

	log.Printf("🎨 [Brief] Generating brief (style: %s, continue: %v)", in.VoiceoverStyle, previousScript != "")

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: image.MimeType, Data: image.Data}},
		genai.NewPartFromText(BuildPrompt(in, previousScript)),
	}

	raw, err := g.client.GenerateStructured(ctx, parts, dataSchema)
	if err != nil {
		return nil, generr.Classify(0, err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &generr.ParseError{RawHead: string(raw), Err: err}
	}

	log.Printf("✅ [Brief] Brief generated: %q (%d script lines)",
		data.Title, len(data.AudioGenerationParameters.Voiceover.ScriptLines))
	return &data, nil
}

// PreviousScript finds the storytelling continuation source: the
// flattened script of the nearest earlier slot that already has a brief.
// Only model runs in storytelling mode continue scripts.
func PreviousScript(in *model.RunInput, slot int, briefs []*Data) string {
	if in == nil || !in.Storytelling || in.NoModelMode {
		return ""
	}
	for i := slot - 1; i >= 0; i-- {
		if i < len(briefs) && briefs[i] != nil {
			return briefs[i].Script()
		}
	}
	return ""
}
