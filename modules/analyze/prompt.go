package analyze

import (
	"fmt"
	"strings"

	"affiliate-video-server/modules/options"
)

// buildExtractionPrompt instructs the text model to extract product
// data from an e-commerce URL verbatim.
func buildExtractionPrompt(productLink string) string {
	availableCategories := strings.Join(options.ProductCategories, ", ")

	var b strings.Builder
	b.WriteString("You are an expert data extractor for e-commerce, specifically for Shopee links (shopee.co.id, id.shp.ee). Your task is to extract information from the provided URL with extreme precision. Do NOT summarize or rephrase.\n\n")
	fmt.Fprintf(&b, "URL: %s\n\n", productLink)
	b.WriteString("Provide the following details in a JSON format that strictly adheres to the provided schema.\n\n")
	b.WriteString("1. **product_name (VITAL):** Copy the product title EXACTLY as it appears on the product page. Do not alter it in any way.\n")
	b.WriteString("2. **description (VITAL):** Copy the entire product description text EXACTLY as it appears on the page. Do not summarize, shorten, or rephrase it.\n")
	fmt.Fprintf(&b, "3. **product_category (VITAL):** Analyze the product and select the single most appropriate category from this exact list: [%s]. The output must be one of the strings from this list.\n", availableCategories)
	b.WriteString("4. **reviews_summary**: Summarize 2-3 of the most helpful or representative customer reviews. Format them as short, quoted sentences.\n")
	b.WriteString("5. **image_search_terms**: Provide 3-4 specific Google search terms for finding high-quality images of this product.\n\n")
	b.WriteString("The entire output must be a single, valid JSON object. The accuracy of 'product_name', 'description', and 'product_category' is your highest priority.")
	return b.String()
}
