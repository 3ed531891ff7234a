package brief

import (
	"fmt"
	"strings"

	"affiliate-video-server/modules/common/model"
)

// SimpleCTA is the fixed closing line for the Simpel narration style.
const SimpleCTA = `ada diskon 70% via keranjang kiri bawah..!!`

// Character budgets for the combined script, by narration style.
const (
	simpleScriptBudget   = 175
	detailedScriptBudget = 300
)

// BuildPrompt assembles the brief instruction for one slot image.
// previousScript, when non-empty, is the flattened voiceover of the
// nearest earlier slot that already has a brief; the new script must
// continue it.
func BuildPrompt(in *model.RunInput, previousScript string) string {
	var b strings.Builder

	b.WriteString("As a creative strategist, create a detailed JSON brief for a short vertical video (TikTok/Reel).\n")
	fmt.Fprintf(&b, "Campaign Title: %s.\n", in.CampaignTitle)
	fmt.Fprintf(&b, "Product Category: %s.", in.ProductCategory)

	if strings.TrimSpace(in.ProductDescription) != "" {
		fmt.Fprintf(&b, "\nProduct Description: %s.", in.ProductDescription)
	}

	b.WriteString("\nInstructions:")
	if in.NoModelMode {
		b.WriteString("\n- This is a PRODUCT-ONLY video. Do not include any people, models, or influencers in the concept.")
		b.WriteString("\n- The tone must be clean, engaging, and focused on the product's features and aesthetic.")
	} else {
		b.WriteString("\n- The concept should feature an influencer.")
		b.WriteString("\n- The tone must be conversational, authentic, and relatable (like a real content creator), not a hard-sell advertisement.")
	}

	b.WriteString("\n- The script must be in Indonesian.")
	b.WriteString("\n- The entire output must be a single JSON object that strictly follows the provided schema.")
	b.WriteString("\n- Include creative and fitting suggestions for background music based on the overall mood.")
	b.WriteString("\n- Ensure the description and script lines are concise and engaging.")
	b.WriteString("\n- **CRITICAL**: The voiceover script MUST follow this 9-part structure:")
	b.WriteString("\n    1. HOOK: A scroll-stopping opening line that acts as a **problem-solving hook**. It should present a relatable problem that the product solves. (e.g., \"Capek kan kalau...\", \"Pernah gak sih kamu...\").")
	b.WriteString("\n    2. PROBLEM: Briefly elaborate on the pain point introduced in the hook.")
	b.WriteString("\n    3. PRODUCT INTRO: Introduce the product.")
	b.WriteString("\n    4. BENEFIT 1: Main advantage.")
	b.WriteString("\n    5. BENEFIT 2: Secondary advantage.")
	b.WriteString("\n    6. DEMO / HOW-TO: Show it in action.")
	b.WriteString("\n    7. SOCIAL PROOF: A quick testimonial or stat.")
	b.WriteString("\n    8. OFFER / URGENCY: The deal.")
	if in.VoiceoverStyle == "Simpel" {
		fmt.Fprintf(&b, "\n    9. CTA: This MUST be exactly: %q", SimpleCTA)
		fmt.Fprintf(&b, "\n- The total length of all combined script lines must be less than %d characters for a SIMPLE style.", simpleScriptBudget)
	} else {
		b.WriteString("\n    9. CTA: Create a compelling Call to Action.")
		fmt.Fprintf(&b, "\n- The total length of all combined script lines must be less than %d characters for a DETAILED style.", detailedScriptBudget)
	}

	if strings.TrimSpace(in.ProductReviews) != "" {
		fmt.Fprintf(&b, "\n\n- INSPIRATION: Use the following customer reviews as strong inspiration for the voiceover script lines (especially for the 'Social Proof' part):\n%s", in.ProductReviews)
	}

	if previousScript != "" {
		fmt.Fprintf(&b, "\n\nIMPORTANT CONTEXT: This video is part of a sequence. The script for the PREVIOUS video was: %q. Please generate a new script that continues this story logically and creatively.", previousScript)
	}

	return b.String()
}
