// Package analyze extracts product information from an e-commerce link
// so a client can prefill its campaign config.
package analyze

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"affiliate-video-server/modules/common/generr"
	"affiliate-video-server/modules/options"
	"google.golang.org/genai"
)

// StructuredCaller is the slice of the Gemini client the extractor needs.
type StructuredCaller interface {
	GenerateStructured(ctx context.Context, parts []*genai.Part, schema *genai.Schema) ([]byte, error)
}

// Result is the extracted product data.
type Result struct {
	ProductName      string   `json:"product_name"`
	Description      string   `json:"description"`
	ProductCategory  string   `json:"product_category"`
	ReviewsSummary   string   `json:"reviews_summary"`
	ImageSearchTerms []string `json:"image_search_terms"`
}

var productAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"product_name": {
			Type:        genai.TypeString,
			Description: "The product title, copied exactly from the page.",
		},
		"description": {
			Type:        genai.TypeString,
			Description: "The full product description, copied exactly from the page.",
		},
		"product_category": {
			Type:        genai.TypeString,
			Description: "The single best-matching category from the allowed list.",
		},
		"reviews_summary": {
			Type:        genai.TypeString,
			Description: "2-3 representative customer reviews as short, quoted sentences.",
		},
		"image_search_terms": {
			Type:        genai.TypeArray,
			Description: "3-4 specific search terms for finding product images.",
			Items:       &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"product_name", "description", "product_category"},
}

// Service runs the extraction call.
type Service struct {
	client StructuredCaller
}

func NewService(client StructuredCaller) *Service {
	return &Service{client: client}
}

// Analyze extracts product data from a product URL. A category the
// model invents outside the catalog is dropped rather than passed on.
func (s *Service) Analyze(ctx context.Context, productLink string) (*Result, error) {
	if !strings.HasPrefix(productLink, "http") {
		return nil, &generr.ValidationError{Field: "product_link", Message: "a valid product URL is required"}
	}

	log.Printf("🔍 [Analyze] Extracting product data from %s", productLink)

	parts := []*genai.Part{genai.NewPartFromText(buildExtractionPrompt(productLink))}
	raw, err := s.client.GenerateStructured(ctx, parts, productAnalysisSchema)
	if err != nil {
		return nil, generr.Classify(0, err)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &generr.ParseError{RawHead: string(raw), Err: err}
	}

	if !options.Contains(options.ProductCategories, result.ProductCategory) {
		log.Printf("⚠️  [Analyze] Model returned unknown category %q, dropping it", result.ProductCategory)
		result.ProductCategory = ""
	}

	log.Printf("✅ [Analyze] Extracted product: %s", result.ProductName)
	return &result, nil
}
