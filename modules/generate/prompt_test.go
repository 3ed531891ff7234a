package generate

import (
	"math/rand"
	"strings"
	"testing"

	"affiliate-video-server/modules/common/model"
	"affiliate-video-server/modules/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInput() *model.RunInput {
	return &model.RunInput{
		NumConcepts:     6,
		CameraStyle:     "iPhone 15 Pro",
		CameraAngle:     "Eye Level",
		Mood:            "Cozy & Warm",
		FaceStrength:    100,
		ProductStrength: 100,
		CroppedFace:     &model.ImageRef{Data: []byte{1}, MimeType: "image/png"},
		ModelImages:     []model.ImageRef{{Data: []byte{2}, MimeType: "image/png"}},
		ProductImages:   []model.ImageRef{{Data: []byte{3}, MimeType: "image/png"}},
	}
}

func TestTierInstructionBoundaries(t *testing.T) {
	exact := tierInstruction(identityTiers, 95)
	strong := tierInstruction(identityTiers, 94)
	inspired := tierInstruction(identityTiers, 60)
	loose := tierInstruction(identityTiers, 59)

	assert.Contains(t, exact, "EXACT, non-negotiable match")
	assert.Contains(t, strong, "very strong likeness")
	assert.Contains(t, inspired, "family resemblance")
	assert.Contains(t, loose, "Do NOT attempt to create a direct copy")

	// 80 is its own boundary.
	assert.Equal(t, strong, tierInstruction(identityTiers, 80))
	assert.NotEqual(t, strong, tierInstruction(identityTiers, 79))
}

func TestTierInstructionClamps(t *testing.T) {
	assert.Equal(t, tierInstruction(identityTiers, 100), tierInstruction(identityTiers, 250))
	assert.Equal(t, tierInstruction(identityTiers, 0), tierInstruction(identityTiers, -10))
}

func TestProductTierBoundaries(t *testing.T) {
	assert.Contains(t, tierInstruction(productTiers, 95), "pixel-perfect replica")
	assert.Contains(t, tierInstruction(productTiers, 80), "very close match")
	assert.Contains(t, tierInstruction(productTiers, 79), "strongly inspired")
}

func TestIdentityProtocolAnchorLine(t *testing.T) {
	withAnchor := IdentityProtocol(100, true)
	without := IdentityProtocol(100, false)

	assert.Contains(t, withAnchor, "IMAGE 3")
	assert.NotContains(t, without, "IMAGE 3")
	assert.Contains(t, without, "IDENTITY PROTOCOL (STRENGTH: 100/100)")
	assert.Contains(t, without, "IMAGE 2")
}

func TestBuildFinalPromptModelMode(t *testing.T) {
	in := testInput()
	prompt := BuildFinalPrompt(in, "A cozy cafe scene.", true, "Eye Level")

	require.True(t, strings.HasPrefix(prompt, "A cozy cafe scene."))
	assert.Contains(t, prompt, "IDENTITY PROTOCOL")
	assert.Contains(t, prompt, "PRODUCT PROTOCOL")
	assert.NotContains(t, prompt, "BACKGROUND PROTOCOL")
	assert.Contains(t, prompt, "**SCENE & STYLE DIRECTIVES:**")
	assert.Contains(t, prompt, "**iPhone 15 Pro**")
	assert.Contains(t, prompt, "Camera Angle: Eye Level.")
	assert.Contains(t, prompt, "**Cozy & Warm**")
}

func TestBuildFinalPromptNoModelWithBackground(t *testing.T) {
	in := testInput()
	in.NoModelMode = true
	in.CustomBackground = &model.ImageRef{Data: []byte{9}, MimeType: "image/png"}

	prompt := BuildFinalPrompt(in, "Scene.", false, "Eye Level")

	assert.NotContains(t, prompt, "IDENTITY PROTOCOL")
	assert.Contains(t, prompt, "BACKGROUND PROTOCOL")
	assert.Contains(t, prompt, "VERY FIRST image")
	assert.Contains(t, prompt, "PRODUCT PROTOCOL")
}

func TestBuildFinalPromptCustomInstructions(t *testing.T) {
	in := testInput()
	in.CustomPrompt = "add neon lighting"
	assert.Contains(t, BuildFinalPrompt(in, "Scene.", false, "Eye Level"), "Custom Instructions: add neon lighting")

	in.CustomPrompt = "   "
	assert.NotContains(t, BuildFinalPrompt(in, "Scene.", false, "Eye Level"), "Custom Instructions")
}

func TestResolveCameraAngleForcing(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	apparel := testInput()
	apparel.IsApparel = true
	assert.Equal(t, "Full Body Shot", ResolveCameraAngle(apparel, rng))

	// Apparel wins even without a model in the scene.
	apparelNoModel := testInput()
	apparelNoModel.IsApparel = true
	apparelNoModel.NoModelMode = true
	assert.Equal(t, "Full Body Shot", ResolveCameraAngle(apparelNoModel, rng))

	productOnly := testInput()
	productOnly.NoModelMode = true
	assert.Equal(t, "Product Close-up", ResolveCameraAngle(productOnly, rng))

	// A custom background lifts the close-up forcing.
	withBg := testInput()
	withBg.NoModelMode = true
	withBg.CustomBackground = &model.ImageRef{Data: []byte{9}, MimeType: "image/png"}
	assert.Equal(t, "Eye Level", ResolveCameraAngle(withBg, rng))
}

func TestResolveCameraAngleRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	in := testInput()
	in.CameraAngle = options.AngleRandom

	for i := 0; i < 20; i++ {
		angle := ResolveCameraAngle(in, rng)
		assert.NotEqual(t, options.AngleRandom, angle)
		assert.True(t, options.Contains(options.CameraAngles, angle))
	}
}
