package generate

import (
	"fmt"
	"math/rand"
	"strings"

	"affiliate-video-server/modules/common/model"
	"affiliate-video-server/modules/options"
)

// Tier maps a minimum strength to its instruction text. Tables are
// walked in order, first match wins, so entries must be sorted by
// descending MinStrength with a 0 catch-all last.
type Tier struct {
	MinStrength int
	Instruction string
}

var identityTiers = []Tier{
	{
		MinStrength: 95,
		Instruction: "Your most critical task is to perfectly replicate the identity of the person in the reference images. Failure to match the face, especially its unique contour and structure, is a complete failure of the entire task.\n" +
			"- The generated person's facial features—eyes, nose, mouth, jawline, cheekbones, and especially the overall **facial contour and structure**—MUST be an EXACT, non-negotiable match to the cropped face provided in IMAGE 1. This is the master face template. Study it meticulously.",
	},
	{
		MinStrength: 80,
		Instruction: "Your primary goal is to create a person who is strongly identifiable as the person in the reference images. Minor deviations are acceptable only if they enhance realism.\n" +
			"- The generated person's facial features MUST be a very strong likeness to the cropped face in IMAGE 1. Pay close attention to the unique shape of the face and key features.",
	},
	{
		MinStrength: 60,
		Instruction: "Your goal is to generate a person who is clearly inspired by the reference images, maintaining key recognizable traits.\n" +
			"- Use the cropped face in IMAGE 1 as a strong visual guide. Ensure the generated person shares a clear family resemblance, particularly in hair color, skin tone, and general face shape.",
	},
	{
		MinStrength: 0,
		Instruction: "Your goal is to generate a new, unique person who is loosely inspired by the general aesthetic of the reference images.\n" +
			"- Use the reference images for general inspiration regarding ethnicity, hair style, and overall vibe. Do NOT attempt to create a direct copy of the face.",
	},
}

var productTiers = []Tier{
	{
		MinStrength: 95,
		Instruction: "The product shown in the generated image MUST be an EXACT, pixel-perfect replica of the product in the reference image. Every detail, logo, color, and texture must be identical. No creative liberties are allowed.",
	},
	{
		MinStrength: 80,
		Instruction: "The product shown MUST be a very close match to the reference image. It should be immediately identifiable as the same product, allowing for only minor, almost unnoticeable, variations in lighting or angle.",
	},
	{
		MinStrength: 0,
		Instruction: "The generated product should be strongly inspired by the reference image in terms of type, shape, and color. It should fit the same category and general design, but can be a different model or have slight variations.",
	},
}

// tierInstruction clamps strength to 0-100 and returns the first
// matching tier's instruction.
func tierInstruction(tiers []Tier, strength int) string {
	if strength > 100 {
		strength = 100
	}
	if strength < 0 {
		strength = 0
	}
	for _, t := range tiers {
		if strength >= t.MinStrength {
			return t.Instruction
		}
	}
	return tiers[len(tiers)-1].Instruction
}

// IdentityProtocol renders the face-likeness block. hasAnchor adds the
// anchor-image line for every call after the first successful one.
func IdentityProtocol(strength int, hasAnchor bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n**IDENTITY PROTOCOL (STRENGTH: %d/100):**\n", strength)
	b.WriteString(tierInstruction(identityTiers, strength))
	b.WriteString("\n- IMAGE 2 (the full body shot) provides context for hair style, body type, and overall aesthetic.")
	if hasAnchor {
		b.WriteString("\n- Additionally, IMAGE 3 is a previously generated image from this same sequence. Use it as a secondary, but still very important, reference to maintain consistency in style, lighting, and the person's appearance from the previous frame.")
	}
	return b.String()
}

// ProductProtocol renders the product-fidelity block.
func ProductProtocol(strength int) string {
	return fmt.Sprintf("\n\n**PRODUCT PROTOCOL (STRENGTH: %d/100):**\n- %s",
		strength, tierInstruction(productTiers, strength))
}

// BackgroundProtocol renders the custom-background block. Only emitted
// when the run attached a custom background, which is always the very
// first input image.
func BackgroundProtocol() string {
	return "\n\n**BACKGROUND PROTOCOL (CRITICAL INSTRUCTION):**\n" +
		"- The VERY FIRST image provided in the input is the custom background.\n" +
		"- You MUST use this exact image as the background for the final scene.\n" +
		"- DO NOT change, alter, modify, or generate a new background. Your task is to place the product onto this specific background image.\n" +
		"- The final generated image must be a seamless composite. The lighting on the product must realistically match the lighting in the background image."
}

// ResolveCameraAngle applies the forcing rules, then the configured
// angle. Apparel runs always shoot full body; other product-only runs
// without a custom background always shoot close-up. A Random angle
// draws a concrete one so the recorded prompt stays replayable.
func ResolveCameraAngle(in *model.RunInput, rng *rand.Rand) string {
	if in.IsApparel {
		return "Full Body Shot"
	}
	if in.NoModelMode && in.CustomBackground == nil {
		return "Product Close-up"
	}
	angle := in.CameraAngle
	if angle == options.AngleRandom || angle == "" {
		concrete := options.CameraAngles[:len(options.CameraAngles)-1]
		return concrete[rng.Intn(len(concrete))]
	}
	return angle
}

// BuildFinalPrompt assembles the full image prompt for one slot: scene
// concept, protocols, then scene & style directives. The result is what
// gets recorded on the slot for regeneration.
func BuildFinalPrompt(in *model.RunInput, sceneConcept string, hasAnchor bool, cameraAngle string) string {
	var b strings.Builder
	b.WriteString(sceneConcept)

	if !in.NoModelMode {
		b.WriteString(IdentityProtocol(in.FaceStrength, hasAnchor))
	}
	if in.NoModelMode && in.CustomBackground != nil {
		b.WriteString(BackgroundProtocol())
	}
	if in.MainProductImage() != nil {
		b.WriteString(ProductProtocol(in.ProductStrength))
	}

	b.WriteString("\n\n**SCENE & STYLE DIRECTIVES:**")
	fmt.Fprintf(&b, "\n- Camera/Lens Style: Recreate the distinct visual signature of a **%s**.", in.CameraStyle)
	fmt.Fprintf(&b, "\n- Camera Angle: %s.", cameraAngle)
	fmt.Fprintf(&b, "\n- Mood & Atmosphere: The overall feeling must be **%s**.", in.Mood)
	if strings.TrimSpace(in.CustomPrompt) != "" {
		fmt.Fprintf(&b, "\n- Custom Instructions: %s", in.CustomPrompt)
	}

	return b.String()
}
