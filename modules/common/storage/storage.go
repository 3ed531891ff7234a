package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"affiliate-video-server/modules/common/config"
	"affiliate-video-server/modules/common/utils"
)

// Client uploads generated images to Supabase Storage and downloads
// reference images. supabase-go has no storage upload API, so uploads go
// through the storage REST endpoint with the service key.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// UploadGeneratedImage converts PNG bytes to WebP and uploads them under
// the run's folder. Returns the public URL and the stored size.
func (c *Client) UploadGeneratedImage(ctx context.Context, pngData []byte, runID string, slotIndex int) (string, int64, error) {
	cfg := config.GetConfig()

	webpData, err := utils.ConvertPNGToWebP(pngData, 90.0)
	if err != nil {
		return "", 0, fmt.Errorf("failed to convert PNG to WebP: %w", err)
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	fileName := fmt.Sprintf("slot-%d_%d_%d.webp", slotIndex, timestamp, rand.Intn(999999))
	filePath := fmt.Sprintf("runs/%s/%s", runID, fileName)

	log.Printf("📤 Uploading WebP image to storage: %s", filePath)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s",
		cfg.SupabaseURL, cfg.SupabaseStorageBucket, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(webpData))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", "image/webp")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		cfg.SupabaseURL, cfg.SupabaseStorageBucket, filePath)

	log.Printf("✅ WebP image uploaded: %s (%d bytes)", filePath, len(webpData))
	return publicURL, int64(len(webpData)), nil
}

// DownloadImage fetches an image by URL, e.g. a previously generated
// slot image used as the anchor for regeneration.
func (c *Client) DownloadImage(ctx context.Context, url string) ([]byte, string, error) {
	log.Printf("📥 Downloading image from: %s", url)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("download failed with status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/webp"
	}
	return data, mime, nil
}
