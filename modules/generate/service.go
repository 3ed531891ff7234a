package generate

import (
	"context"
	"encoding/json"
	"log"

	"affiliate-video-server/modules/common/credential"
	"affiliate-video-server/modules/common/database"
	"affiliate-video-server/modules/common/gemini"
	"affiliate-video-server/modules/common/model"
	redisutil "affiliate-video-server/modules/common/redis"
	"affiliate-video-server/modules/common/storage"
	"affiliate-video-server/modules/common/utils"
	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

// Service is the production wiring for the engine: Gemini calls, WebP
// storage uploads, Supabase persistence, Redis cancel flags and the
// credential store. It implements ImageGenerator, CancelChecker,
// RunRecorder and CredentialInvalidator.
type Service struct {
	gemini  *gemini.Client
	storage *storage.Client
	db      *database.Client
	rdb     *goredis.Client
	creds   *credential.Store
}

func NewService(geminiClient *gemini.Client, db *database.Client, rdb *goredis.Client, creds *credential.Store) *Service {
	if db == nil {
		log.Println("❌ [Generate] Service requires a database client")
		return nil
	}
	return &Service{
		gemini:  geminiClient,
		storage: storage.NewClient(),
		db:      db,
		rdb:     rdb,
		creds:   creds,
	}
}

// GenerateSlotImage runs one image call with the reference images in
// protocol order, then uploads the result. Reference order must match
// the prompt's IMAGE numbering:
// model runs    -> face crop, full-body ref, anchor
// no-model runs -> custom background first, then anchor
// and in both cases the main product image, then the text prompt.
func (s *Service) GenerateSlotImage(ctx context.Context, runID string, slot int, in *model.RunInput, prompt string, anchor *model.ImageRef) (*SlotImage, error) {
	var parts []*genai.Part

	if !in.NoModelMode {
		if in.CroppedFace != nil {
			face, err := utils.SquareCrop(in.CroppedFace.Data)
			if err != nil {
				log.Printf("⚠️  [Generate] Face crop normalization failed, using original: %v", err)
				face = in.CroppedFace.Data
			}
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: in.CroppedFace.MimeType, Data: face},
			})
		}
		if ref := in.MainModelImage(); ref != nil {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: ref.MimeType, Data: ref.Data},
			})
		}
		if anchor != nil {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: anchor.MimeType, Data: anchor.Data},
			})
		}
	} else {
		if in.CustomBackground != nil {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: in.CustomBackground.MimeType, Data: in.CustomBackground.Data},
			})
		}
		if anchor != nil {
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: anchor.MimeType, Data: anchor.Data},
			})
		}
	}

	if product := in.MainProductImage(); product != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: product.MimeType, Data: product.Data},
		})
	}

	parts = append(parts, genai.NewPartFromText(prompt))

	data, mime, err := s.gemini.GenerateImage(ctx, parts)
	if err != nil {
		return nil, err
	}

	url, _, err := s.storage.UploadGeneratedImage(ctx, data, runID, slot)
	if err != nil {
		return nil, err
	}

	return &SlotImage{URL: url, MimeType: mime, Data: data}, nil
}

// IsCancelled reads the Redis cancel flag.
func (s *Service) IsCancelled(ctx context.Context, runID string) bool {
	if s.rdb == nil {
		return false
	}
	return redisutil.IsRunCancelled(ctx, s.rdb, runID)
}

// Invalidate clears the stored credential after a provider rejection.
func (s *Service) Invalidate(ctx context.Context) {
	if s.creds == nil {
		return
	}
	if err := s.creds.Clear(ctx); err != nil {
		log.Printf("⚠️  [Generate] Failed to clear credential: %v", err)
	}
}

// RecordSlot persists a slot's current state.
func (s *Service) RecordSlot(ctx context.Context, runID string, item ResultItem, prompt string) {
	fields := map[string]interface{}{
		"image_url":     nullable(item.ImageURL),
		"mime_type":     nullable(item.MimeType),
		"error_message": nullable(item.Error),
	}
	if prompt != "" {
		fields["prompt"] = prompt
	}
	if item.Brief != nil {
		var brief map[string]interface{}
		if err := json.Unmarshal(item.Brief, &brief); err == nil {
			fields["brief"] = brief
		}
	} else {
		fields["brief"] = nil
	}

	if err := s.db.UpdateResultSlot(ctx, runID, item.SlotIndex, fields); err != nil {
		log.Printf("⚠️  [Generate] Failed to persist slot %d of run %s: %v", item.SlotIndex, runID, err)
	}
}

// RecordStatus persists the run lifecycle state.
func (s *Service) RecordStatus(ctx context.Context, runID string, status string, errorMessage string) {
	if err := s.db.UpdateRunStatus(ctx, runID, status, errorMessage); err != nil {
		log.Printf("⚠️  [Generate] Failed to persist status of run %s: %v", runID, err)
	}
}

// RecordProgress persists the slot counters.
func (s *Service) RecordProgress(ctx context.Context, runID string, completed int, failed int) {
	if err := s.db.UpdateRunProgress(ctx, runID, completed, failed); err != nil {
		log.Printf("⚠️  [Generate] Failed to persist progress of run %s: %v", runID, err)
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
