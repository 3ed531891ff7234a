// Package gemini wraps the google.golang.org/genai client with the key
// pool, retry behavior and response plumbing shared by every module that
// talks to the model.
package gemini

import (
	"context"
	"fmt"
	"log"
	"time"

	"affiliate-video-server/modules/common/config"
	"affiliate-video-server/modules/common/credential"
	"google.golang.org/genai"
)

// Client issues Gemini calls using the stored credential first and the
// configured key pool as fallback.
type Client struct {
	cfg   *config.Config
	creds *credential.Store
}

func NewClient(cfg *config.Config, creds *credential.Store) *Client {
	return &Client{cfg: cfg, creds: creds}
}

// keys resolves the credential pool for a call: the user-stored
// credential takes precedence, the environment pool backs it up.
func (c *Client) keys(ctx context.Context) []string {
	if c.creds != nil {
		if stored, err := c.creds.Get(ctx); err == nil && stored != "" {
			return append([]string{stored}, c.cfg.GeminiAPIKeys...)
		}
	}
	return c.cfg.GeminiAPIKeys
}

// GenerateImage runs one image-model call. parts must already be in
// reference order with the text prompt last. Returns raw image bytes and
// their MIME type.
func (c *Client) GenerateImage(ctx context.Context, parts []*genai.Part) ([]byte, string, error) {
	log.Printf("🎨 [Gemini] Image call (model: %s, parts: %d)", c.cfg.ImageModel, len(parts))

	contents := []*genai.Content{{Parts: parts}}
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		Temperature:        floatPtr(0.45),
	}

	result, err := generateWithRetry(ctx, c.keys(ctx), c.cfg.ImageModel, contents, genConfig)
	if err != nil {
		return nil, "", err
	}

	if len(result.Candidates) == 0 {
		return nil, "", fmt.Errorf("no candidates in response")
	}
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				log.Printf("✅ [Gemini] Received image: %d bytes (%s)", len(part.InlineData.Data), mime)
				return part.InlineData.Data, mime, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no image data in response")
}

// GenerateStructured runs one text-model call with a JSON response
// schema and returns the raw JSON payload.
func (c *Client) GenerateStructured(ctx context.Context, parts []*genai.Part, schema *genai.Schema) ([]byte, error) {
	log.Printf("🎨 [Gemini] Structured call (model: %s, parts: %d)", c.cfg.TextModel, len(parts))

	contents := []*genai.Content{{Parts: parts}}
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	result, err := generateWithRetry(ctx, c.keys(ctx), c.cfg.TextModel, contents, genConfig)
	if err != nil {
		return nil, err
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return []byte(part.Text), nil
			}
		}
	}
	return nil, fmt.Errorf("no text data in response")
}

// CallTimeout is the per-call deadline derived from config.
func (c *Client) CallTimeout() time.Duration {
	return time.Duration(c.cfg.GenerationTimeout()) * time.Second
}

func floatPtr(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
