package analyze

import (
	"context"
	"errors"
	"testing"

	"affiliate-video-server/modules/common/generr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type mockCaller struct {
	response []byte
	err      error
	prompt   string
}

func (m *mockCaller) GenerateStructured(_ context.Context, parts []*genai.Part, _ *genai.Schema) ([]byte, error) {
	if len(parts) > 0 {
		m.prompt = parts[0].Text
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func TestAnalyzeExtractsProduct(t *testing.T) {
	caller := &mockCaller{response: []byte(`{
		"product_name": "Tumbler Stainless 1L",
		"description": "Botol minum stainless steel dengan insulasi ganda.",
		"product_category": "Home Goods",
		"reviews_summary": "\"Barangnya bagus banget!\" \"Pengiriman cepat.\"",
		"image_search_terms": ["stainless tumbler 1L product photo"]
	}`)}
	svc := NewService(caller)

	result, err := svc.Analyze(context.Background(), "https://shopee.co.id/product/123")
	require.NoError(t, err)
	assert.Equal(t, "Tumbler Stainless 1L", result.ProductName)
	assert.Equal(t, "Home Goods", result.ProductCategory)
	assert.NotEmpty(t, result.ReviewsSummary)

	assert.Contains(t, caller.prompt, "https://shopee.co.id/product/123")
	assert.Contains(t, caller.prompt, "product_category (VITAL)")
	assert.Contains(t, caller.prompt, "Home Goods")
}

func TestAnalyzeRejectsBadURL(t *testing.T) {
	svc := NewService(&mockCaller{})

	_, err := svc.Analyze(context.Background(), "not-a-url")
	var ve *generr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "product_link", ve.Field)
}

func TestAnalyzeDropsUnknownCategory(t *testing.T) {
	caller := &mockCaller{response: []byte(`{
		"product_name": "X",
		"description": "Y",
		"product_category": "Spaceships"
	}`)}
	svc := NewService(caller)

	result, err := svc.Analyze(context.Background(), "https://shopee.co.id/x")
	require.NoError(t, err)
	assert.Empty(t, result.ProductCategory)
}

func TestAnalyzeClassifiesCredentialError(t *testing.T) {
	caller := &mockCaller{err: errors.New("API key not valid")}
	svc := NewService(caller)

	_, err := svc.Analyze(context.Background(), "https://shopee.co.id/x")
	assert.True(t, generr.IsCredential(err))
}

func TestAnalyzeParseError(t *testing.T) {
	caller := &mockCaller{response: []byte("not json")}
	svc := NewService(caller)

	_, err := svc.Analyze(context.Background(), "https://shopee.co.id/x")
	var pe *generr.ParseError
	assert.ErrorAs(t, err, &pe)
}
