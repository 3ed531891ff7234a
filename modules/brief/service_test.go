package brief

import (
	"context"
	"errors"
	"testing"

	"affiliate-video-server/modules/common/generr"
	"affiliate-video-server/modules/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type mockStructuredCaller struct {
	response []byte
	err      error
	prompt   string
	parts    int
}

func (m *mockStructuredCaller) GenerateStructured(ctx context.Context, parts []*genai.Part, schema *genai.Schema) ([]byte, error) {
	m.parts = len(parts)
	for _, p := range parts {
		if p.Text != "" {
			m.prompt = p.Text
		}
	}
	return m.response, m.err
}

func briefInput() *model.RunInput {
	return &model.RunInput{
		CampaignTitle:   "Tumbler Keren",
		ProductCategory: "Home Goods",
		VoiceoverStyle:  "Simpel",
	}
}

func slotImage() *model.ImageRef {
	return &model.ImageRef{Data: []byte("png-bytes"), MimeType: "image/png"}
}

func TestGenerateParsesBrief(t *testing.T) {
	payload := `{
		"title": "Tumbler Anti Bocor",
		"description": "Tumbler estetik yang menjaga minuman tetap dingin.",
		"audio_generation_parameters": {
			"voiceover": {
				"language": "id",
				"script_lines": [
					{"speaker_tag": "VO", "text": "Capek kan kalau minuman cepat panas?"},
					{"speaker_tag": "VO", "text": "ada diskon 70% via keranjang kiri bawah..!!"}
				]
			}
		}
	}`
	mock := &mockStructuredCaller{response: []byte(payload)}
	gen := NewGenerator(mock)

	data, err := gen.Generate(context.Background(), slotImage(), briefInput(), "")
	require.NoError(t, err)
	assert.Equal(t, "Tumbler Anti Bocor", data.Title)
	require.Len(t, data.AudioGenerationParameters.Voiceover.ScriptLines, 2)
	assert.Equal(t, 2, mock.parts, "image and prompt parts expected")
	assert.Equal(t,
		"Capek kan kalau minuman cepat panas? ada diskon 70% via keranjang kiri bawah..!!",
		data.Script())
}

func TestGenerateMalformedResponseIsParseError(t *testing.T) {
	mock := &mockStructuredCaller{response: []byte(`{"title": `)}
	gen := NewGenerator(mock)

	_, err := gen.Generate(context.Background(), slotImage(), briefInput(), "")

	var pe *generr.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestGenerateCredentialErrorClassified(t *testing.T) {
	mock := &mockStructuredCaller{err: errors.New("API key not valid")}
	gen := NewGenerator(mock)

	_, err := gen.Generate(context.Background(), slotImage(), briefInput(), "")
	assert.True(t, generr.IsCredential(err))
}

func TestGenerateRejectsMissingImage(t *testing.T) {
	gen := NewGenerator(&mockStructuredCaller{})

	_, err := gen.Generate(context.Background(), nil, briefInput(), "")

	var ve *generr.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestBuildPromptSimpleStyle(t *testing.T) {
	prompt := BuildPrompt(briefInput(), "")

	assert.Contains(t, prompt, "The script must be in Indonesian.")
	assert.Contains(t, prompt, "9-part structure")
	assert.Contains(t, prompt, SimpleCTA)
	assert.Contains(t, prompt, "less than 175 characters")
	assert.NotContains(t, prompt, "less than 300 characters")
}

func TestBuildPromptDetailedStyle(t *testing.T) {
	in := briefInput()
	in.VoiceoverStyle = "Detail"

	prompt := BuildPrompt(in, "")
	assert.Contains(t, prompt, "Create a compelling Call to Action.")
	assert.Contains(t, prompt, "less than 300 characters")
	assert.NotContains(t, prompt, SimpleCTA)
}

func TestBuildPromptToneByMode(t *testing.T) {
	in := briefInput()
	withModel := BuildPrompt(in, "")
	assert.Contains(t, withModel, "feature an influencer")

	in.NoModelMode = true
	productOnly := BuildPrompt(in, "")
	assert.Contains(t, productOnly, "PRODUCT-ONLY video")
	assert.NotContains(t, productOnly, "feature an influencer")
}

func TestBuildPromptContinuesPreviousScript(t *testing.T) {
	prompt := BuildPrompt(briefInput(), "Script sebelumnya tentang tumbler.")
	assert.Contains(t, prompt, "The script for the PREVIOUS video was")
	assert.Contains(t, prompt, "Script sebelumnya tentang tumbler.")
}

func TestBuildPromptIncludesReviews(t *testing.T) {
	in := briefInput()
	in.ProductReviews = `"Barangnya bagus banget!" - pembeli`

	prompt := BuildPrompt(in, "")
	assert.Contains(t, prompt, "Social Proof")
	assert.Contains(t, prompt, "Barangnya bagus banget!")
}

func TestPreviousScriptNearestEarlier(t *testing.T) {
	in := briefInput()
	in.Storytelling = true

	mk := func(text string) *Data {
		return &Data{AudioGenerationParameters: AudioParameters{
			Voiceover: Voiceover{ScriptLines: []ScriptLine{{Text: text}}},
		}}
	}
	briefs := []*Data{mk("script nol"), nil, mk("script dua"), nil}

	assert.Equal(t, "script dua", PreviousScript(in, 3, briefs))
	assert.Equal(t, "script nol", PreviousScript(in, 2, briefs))
	assert.Equal(t, "", PreviousScript(in, 0, briefs))
}

func TestPreviousScriptDisabledOutsideStorytelling(t *testing.T) {
	in := briefInput()
	briefs := []*Data{{Title: "x"}}

	assert.Equal(t, "", PreviousScript(in, 1, briefs), "storytelling off")

	in.Storytelling = true
	in.NoModelMode = true
	assert.Equal(t, "", PreviousScript(in, 1, briefs), "no-model mode never continues")
}

func TestScriptBudgets(t *testing.T) {
	// Simpel must stay the tighter budget.
	assert.Less(t, simpleScriptBudget, detailedScriptBudget)
	assert.Equal(t, 175, simpleScriptBudget)
	assert.Equal(t, 300, detailedScriptBudget)
}
