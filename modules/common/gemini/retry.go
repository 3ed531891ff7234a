package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

const maxRetriesPerKey = 3

// generateWithRetry walks the key pool, retrying each key up to
// maxRetriesPerKey times on rate-limit errors. Non-quota errors return
// immediately so credential rejections surface unchanged.
func generateWithRetry(
	ctx context.Context,
	apiKeys []string,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {

	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("no API keys provided")
	}

	var lastErr error

	for keyIndex, apiKey := range apiKeys {
		for attempt := 1; attempt <= maxRetriesPerKey; attempt++ {
			if attempt > 1 {
				log.Printf("   🔄 [Gemini Retry] Attempt %d/%d for key #%d", attempt, maxRetriesPerKey, keyIndex+1)
			}

			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				log.Printf("⚠️  [Gemini Retry] Client init failed for key #%d: %v", keyIndex+1, err)
				lastErr = err
				break
			}

			result, err := client.Models.GenerateContent(ctx, model, contents, cfg)
			if err == nil {
				return result, nil
			}
			lastErr = err

			if !isRateLimitError(err) {
				log.Printf("❌ [Gemini Retry] Key #%d failed with non-quota error: %v", keyIndex+1, err)
				return nil, err
			}

			log.Printf("⚠️  [Gemini Retry] Key #%d rate-limited (attempt %d/%d)", keyIndex+1, attempt, maxRetriesPerKey)
			if attempt < maxRetriesPerKey {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(2 * time.Second):
				}
			}
		}
		log.Printf("⚠️  [Gemini Retry] Key #%d exhausted, trying next key...", keyIndex+1)
	}

	return nil, fmt.Errorf("all %d API keys exhausted (%d attempts each), last error: %w",
		len(apiKeys), maxRetriesPerKey, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota")
}
