package concepts

import (
	"fmt"
	"strings"

	"affiliate-video-server/modules/common/model"
	"affiliate-video-server/modules/options"
)

// BuildDirectorPrompt assembles the creative-director instruction for
// one structured concept call. Product-only runs get a product
// photographer persona; runs with a model get the influencer persona.
func BuildDirectorPrompt(in *model.RunInput, count int) string {
	if in.NoModelMode {
		return buildProductDirectorPrompt(in, count)
	}
	return buildInfluencerDirectorPrompt(in, count)
}

func buildProductDirectorPrompt(in *model.RunInput, count int) string {
	var presentationContext string
	if in.CustomBackground != nil {
		if in.PresentationStyle == options.PresentationHand {
			presentationContext = "The product is presented being held by an elegant, beautiful female hand. This is all set against a custom user-provided background."
		} else {
			presentationContext = "The product is presented placed aesthetically on a custom user-provided background."
		}
	} else {
		presentationContext = fmt.Sprintf("The scene takes place in a setting like: %s.", in.SubLocation)
	}

	lines := []string{
		"You are a world-class Product Photographer's Creative Director.",
		fmt.Sprintf("Your task is to generate %d unique, visually stunning concepts for a product-only photoshoot.", count),
		"The core theme is to make the product look iconic and desirable.",
		"Think about unique environments, lighting, and compositions. DO NOT be generic.",
		"",
		"**Product Information:**",
		fmt.Sprintf("- Category: %s", in.ProductCategory),
		fmt.Sprintf("- Description: %s", descriptionOrDefault(in.ProductDescription)),
	}
	if in.ProductLink != "" {
		lines = append(lines, fmt.Sprintf("- Product Link for Analysis: %s", in.ProductLink))
	}
	lines = append(lines,
		fmt.Sprintf("- Presentation Context: %s", presentationContext),
		fmt.Sprintf("- Overall Mood: %s", in.Mood),
		"",
		"Each concept must be a single, descriptive paragraph.",
		"Your final output MUST be a JSON object that strictly follows the provided schema.",
	)
	return strings.Join(lines, "\n")
}

func buildInfluencerDirectorPrompt(in *model.RunInput, count int) string {
	lines := []string{
		"You are an expert Creative Director specializing in authentic, engaging Gen Z influencer content for platforms like TikTok and Instagram Reels.",
		fmt.Sprintf("Your task is to generate %d unique, detailed, and visually compelling scene concepts.", count),
		"",
		"**THEME & PERSONA:**",
		"The central theme is **ENTHUSIASTIC & HONEST REVIEW**. The influencer genuinely loves this product and is enthusiastically sharing their excitement with their followers. This is NOT a polished ad. It should feel like a real, candid moment from a content creator's life, showing the product within a familiar, relatable routine.",
		"",
		"**Creative Constraints & Inspiration:**",
		fmt.Sprintf("- **Product:** A %s described as: %q", in.ProductCategory, descriptionOrDefault(in.ProductDescription)),
	}
	if in.ProductLink != "" {
		lines = append(lines, fmt.Sprintf("- Product Link for additional context: %s", in.ProductLink))
	}
	lines = append(lines,
		fmt.Sprintf("- **Location:** The scene MUST take place in a setting like: **%s**.", in.SubLocation),
		fmt.Sprintf("- **Overall Mood:** The vibe should be **%s**.", in.Mood),
		"",
		"**Instructions:**",
		fmt.Sprintf("- Generate %d completely different scene ideas.", count),
		"- Each concept should be a single, descriptive paragraph focusing on the action, environment, and the influencer's enthusiastic expression.",
		"- Emphasize natural interaction with the product.",
		"- DO NOT be generic. DO NOT create boring studio shots. DO NOT repeat ideas.",
		"- Your final output MUST be a JSON object that strictly follows the provided schema.",
	)
	return strings.Join(lines, "\n")
}

func descriptionOrDefault(desc string) string {
	if strings.TrimSpace(desc) == "" {
		return "No description provided."
	}
	return desc
}
