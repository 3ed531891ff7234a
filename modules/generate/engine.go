package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"affiliate-video-server/modules/common/generr"
	"affiliate-video-server/modules/common/model"
	"affiliate-video-server/modules/concepts"
)

// User-facing slot errors, matching the client's language.
const (
	errMsgContentFailure  = "Generasi Gagal. Ini mungkin karena filter keamanan AI. Coba ubah prompt kustom atau gunakan gambar yang berbeda."
	errMsgCredential      = "Kesalahan Konfigurasi API"
	errMsgStopped         = "Generation stopped by user."
	errMsgPromptNotFound  = "Prompt asli tidak ditemukan."
	errMsgConceptsFailure = "Gagal membuat konsep adegan."
)

const (
	AnchorPolicyChain     = "chain"
	AnchorPolicyFirstOnly = "first-only"
)

// ImageGenerator produces one slot image. The anchor, when non-nil, is
// threaded into the call's reference images.
type ImageGenerator interface {
	GenerateSlotImage(ctx context.Context, runID string, slot int, in *model.RunInput, prompt string, anchor *model.ImageRef) (*SlotImage, error)
}

// SlotImage is a successful generation: the stored public URL plus the
// raw bytes kept in memory as the next anchor.
type SlotImage struct {
	URL      string
	MimeType string
	Data     []byte
}

// CancelChecker reads the cooperative cancel flag. The loop polls it at
// the top of every iteration.
type CancelChecker interface {
	IsCancelled(ctx context.Context, runID string) bool
}

// EventSink receives progress events for live subscribers.
type EventSink interface {
	SlotUpdated(runID string, item ResultItem)
	RunCompleted(runID string)
	RunFailed(runID string, message string)
}

// RunRecorder persists slot and run state. Implementations must tolerate
// being called from the loop goroutine and HTTP handlers.
type RunRecorder interface {
	RecordSlot(ctx context.Context, runID string, item ResultItem, prompt string)
	RecordStatus(ctx context.Context, runID string, status string, errorMessage string)
	RecordProgress(ctx context.Context, runID string, completed int, failed int)
}

// CredentialInvalidator clears a rejected credential.
type CredentialInvalidator interface {
	Invalidate(ctx context.Context)
}

// EngineConfig wires an Engine. Concepts, Images, Cancel and Events are
// required; Recorder, Credentials, Rand and Sleep have working defaults.
type EngineConfig struct {
	RunID               string
	Input               *model.RunInput
	SlotIDs             []string
	Concepts            concepts.Source
	Images              ImageGenerator
	Cancel              CancelChecker
	Events              EventSink
	Recorder            RunRecorder
	Credentials         CredentialInvalidator
	InterCallDelay      time.Duration
	CallTimeout         time.Duration
	DefaultAnchorPolicy string
	Rand                *rand.Rand
	Sleep               func(time.Duration)
}

// Engine owns one run: its config snapshot, its slot store, the anchor
// accumulator and the recorded per-slot prompts. One Run executes at a
// time; RegenerateSlot and brief generation may run after it finishes.
type Engine struct {
	runID    string
	input    *model.RunInput
	store    *Store
	concepts concepts.Source
	images   ImageGenerator
	cancel   CancelChecker
	events   EventSink
	recorder RunRecorder
	creds    CredentialInvalidator

	delay        time.Duration
	callTimeout  time.Duration
	anchorPolicy string
	rng          *rand.Rand
	sleep        func(time.Duration)

	mu         sync.Mutex
	status     string
	scenes     []string          // scene concept per slot, regeneration rebuilds from these
	prompts    []string          // last final prompt per slot, persisted with the slot
	slotImages []*model.ImageRef // successful bytes per slot, anchor source
}

func NewEngine(cfg EngineConfig) *Engine {
	n := len(cfg.SlotIDs)
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &Engine{
		runID:        cfg.RunID,
		input:        cfg.Input,
		store:        NewStore(cfg.SlotIDs),
		concepts:     cfg.Concepts,
		images:       cfg.Images,
		cancel:       cfg.Cancel,
		events:       cfg.Events,
		recorder:     cfg.Recorder,
		creds:        cfg.Credentials,
		delay:        cfg.InterCallDelay,
		callTimeout:  callTimeout,
		anchorPolicy: resolveAnchorPolicy(cfg.Input, cfg.DefaultAnchorPolicy),
		rng:          rng,
		sleep:        sleep,
		status:       model.StatusPending,
		scenes:       make([]string, n),
		prompts:      make([]string, n),
		slotImages:   make([]*model.ImageRef, n),
	}
}

func resolveAnchorPolicy(in *model.RunInput, fallback string) string {
	policy := fallback
	if in != nil && in.AnchorPolicy != "" {
		policy = in.AnchorPolicy
	}
	if policy != AnchorPolicyFirstOnly {
		policy = AnchorPolicyChain
	}
	// Storytelling needs every frame to see the latest one.
	if in != nil && in.Storytelling {
		policy = AnchorPolicyChain
	}
	return policy
}

// Store exposes the run's slot store for handlers.
func (e *Engine) Store() *Store { return e.store }

// Status returns the run's lifecycle state.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) setStatus(status string) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
}

// Input returns the run's config snapshot.
func (e *Engine) Input() *model.RunInput { return e.input }

// ValidateInput rejects a bad configuration before any side effect. The
// enqueue handler calls it so a broken request never reaches the queue;
// Run repeats it as a guard.
func ValidateInput(in *model.RunInput) error {
	return validateInput(in)
}

func validateInput(in *model.RunInput) error {
	if in == nil {
		return &generr.ValidationError{Field: "input", Message: "run input is required"}
	}
	if in.MainProductImage() == nil {
		return &generr.ValidationError{Field: "product_images", Message: "at least one product image is required"}
	}
	if !in.NoModelMode && in.CroppedFace == nil {
		return &generr.ValidationError{Field: "cropped_face", Message: "model mode requires a confirmed face crop"}
	}
	if in.NumConcepts < 1 || in.NumConcepts > 10 {
		return &generr.ValidationError{Field: "num_concepts", Message: "must be between 1 and 10"}
	}
	if in.FaceStrength < 0 || in.FaceStrength > 100 {
		return &generr.ValidationError{Field: "face_strength", Message: "must be between 0 and 100"}
	}
	if in.ProductStrength < 0 || in.ProductStrength > 100 {
		return &generr.ValidationError{Field: "product_strength", Message: "must be between 0 and 100"}
	}
	if len(in.ModelImages) > 5 {
		return &generr.ValidationError{Field: "model_images", Message: "at most 5 model images"}
	}
	if len(in.ProductImages) > 6 {
		return &generr.ValidationError{Field: "product_images", Message: "at most 6 product images"}
	}
	return nil
}

// NormalizeInput fills defaults on an enqueue request before it is
// snapshotted. Kept separate from validation so stored runs replay
// unchanged.
func NormalizeInput(in *model.RunInput) {
	if in.NumConcepts == 0 {
		in.NumConcepts = 6
	}
	if in.FaceStrength == 0 {
		in.FaceStrength = 100
	}
	if in.ProductStrength == 0 {
		in.ProductStrength = 100
	}
	if in.VoiceoverStyle == "" {
		in.VoiceoverStyle = "Simpel"
	}
	if in.PresentationStyle == "" {
		in.PresentationStyle = "placed"
	}
}

// Run executes the sequential generation loop. Per-item failures burn
// their slot and continue; a credential rejection aborts everything.
func (e *Engine) Run(ctx context.Context) error {
	if err := validateInput(e.input); err != nil {
		e.setStatus(model.StatusFailed)
		e.recordStatus(ctx, model.StatusFailed, err.Error())
		e.emitRunFailed(err.Error())
		return err
	}

	n := e.store.Len()
	e.setStatus(model.StatusProcessing)
	e.recordStatus(ctx, model.StatusProcessing, "")
	log.Printf("🚀 [Engine] Run %s started (%d slots, anchor: %s)", e.runID, n, e.anchorPolicy)

	// Phase 1: scene concepts. Failure here aborts before any slot work.
	sceneConcepts, err := e.concepts.Concepts(ctx, e.input, n)
	if err != nil {
		log.Printf("❌ [Engine] Run %s concept sourcing failed: %v", e.runID, err)
		if generr.IsCredential(err) {
			e.invalidateCredential(ctx)
			e.failAllLoading(ctx, errMsgCredential)
		} else {
			e.failAllLoading(ctx, errMsgConceptsFailure)
		}
		e.setStatus(model.StatusFailed)
		e.recordStatus(ctx, model.StatusFailed, err.Error())
		e.emitRunFailed(err.Error())
		return err
	}

	// Phase 2: strictly sequential image loop.
	var anchor *model.ImageRef
	completed, failed := 0, 0

	for i := 0; i < n; i++ {
		if e.cancel.IsCancelled(ctx, e.runID) {
			log.Printf("🛑 [Engine] Run %s cancelled at slot %d", e.runID, i)
			e.failAllLoading(ctx, errMsgStopped)
			e.setStatus(model.StatusUserCancelled)
			e.recordStatus(ctx, model.StatusUserCancelled, "")
			return nil
		}

		log.Printf("🎨 [Engine] Run %s generating slot %d/%d", e.runID, i+1, n)

		callAnchor := e.anchorForSlot(i, anchor)
		angle := ResolveCameraAngle(e.input, e.rng)
		prompt := BuildFinalPrompt(e.input, sceneConcepts[i], callAnchor != nil, angle)
		e.setScene(i, sceneConcepts[i])
		e.setPrompt(i, prompt)

		img, err := e.generateWithTimeout(ctx, i, prompt, callAnchor)
		if err != nil {
			classified := generr.Classify(i, err)
			if generr.IsCredential(classified) {
				log.Printf("❌ [Engine] Run %s credential rejected at slot %d, aborting", e.runID, i)
				e.invalidateCredential(ctx)
				e.failAllLoading(ctx, errMsgCredential)
				e.setStatus(model.StatusFailed)
				e.recordStatus(ctx, model.StatusFailed, classified.Error())
				e.emitRunFailed(classified.Error())
				return classified
			}

			// Per-item failure: burn the slot, keep the anchor as-is.
			log.Printf("⚠️  [Engine] Run %s slot %d failed: %v", e.runID, i, classified)
			failed++
			e.applyAndBroadcast(ctx, i, Patch{
				IsLoading: boolPtr(false),
				Error:     strPtr(errMsgContentFailure),
			})
		} else {
			completed++
			e.setSlotImage(i, &model.ImageRef{Data: img.Data, MimeType: img.MimeType})
			if e.anchorPolicy == AnchorPolicyChain || i == 0 {
				anchor = &model.ImageRef{Data: img.Data, MimeType: img.MimeType}
			}
			e.applyAndBroadcast(ctx, i, Patch{
				ImageURL:   strPtr(img.URL),
				MimeType:   strPtr(img.MimeType),
				IsLoading:  boolPtr(false),
				ClearError: true,
			})
		}

		e.recordProgress(ctx, completed, failed)

		// Pause between calls, but never after the last one and never
		// once a stop was requested.
		if i < n-1 && !e.cancel.IsCancelled(ctx, e.runID) {
			e.sleep(e.delay)
		}
	}

	e.setStatus(model.StatusCompleted)
	e.recordStatus(ctx, model.StatusCompleted, "")
	if e.events != nil {
		e.events.RunCompleted(e.runID)
	}
	log.Printf("✅ [Engine] Run %s completed (%d ok, %d failed)", e.runID, completed, failed)
	return nil
}

// generateWithTimeout bounds one image call. An expired deadline comes
// back as a per-item content failure, not a run abort.
func (e *Engine) generateWithTimeout(ctx context.Context, slot int, prompt string, anchor *model.ImageRef) (*SlotImage, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return e.images.GenerateSlotImage(callCtx, e.runID, slot, e.input, prompt, anchor)
}

// anchorForSlot applies the anchor policy: chain threads the latest
// successful image into every later call, first-only stops after the
// second slot.
func (e *Engine) anchorForSlot(slot int, anchor *model.ImageRef) *model.ImageRef {
	if slot == 0 || anchor == nil {
		return nil
	}
	if e.anchorPolicy == AnchorPolicyFirstOnly && slot != 1 {
		return nil
	}
	return anchor
}

// RegenerateSlot redoes one slot from its recorded scene concept. The
// slot's brief is cleared because it described the replaced image. When
// slot 0 regenerates under the chain policy, every later slot follows in
// order so the anchor thread stays coherent; under first-only the
// cascade stops after slot 1. The cascade only starts once slot 0 itself
// produced a fresh image, because the later slots re-anchor on it.
func (e *Engine) RegenerateSlot(ctx context.Context, slot int) error {
	last := slot
	if slot == 0 && e.store.Len() > 1 {
		if e.anchorPolicy == AnchorPolicyChain {
			last = e.store.Len() - 1
		} else {
			last = 1
		}
	}

	for i := slot; i <= last; i++ {
		if i > slot && e.cancel.IsCancelled(ctx, e.runID) {
			e.failAllLoading(ctx, errMsgStopped)
			return nil
		}
		if err := e.regenerateOne(ctx, i); err != nil {
			if generr.IsCredential(err) {
				return err
			}
			if i == slot && last > slot {
				log.Printf("⚠️  [Engine] Run %s slot %d regeneration failed, skipping cascade", e.runID, slot)
				return nil
			}
			// Per-item: the slot already carries its error.
		}
		if i < last {
			e.sleep(e.delay)
		}
	}
	return nil
}

// regenerateOne rebuilds the slot's final prompt from its recorded scene
// concept, so the anchor-image instruction matches whether an anchor is
// actually attached this time.
func (e *Engine) regenerateOne(ctx context.Context, slot int) error {
	scene := e.getScene(slot)
	if scene == "" {
		log.Printf("❌ [Engine] Run %s slot %d has no recorded scene concept", e.runID, slot)
		e.applyAndBroadcast(ctx, slot, Patch{
			IsLoading: boolPtr(false),
			Error:     strPtr(errMsgPromptNotFound),
		})
		return fmt.Errorf("no recorded scene concept for slot %d", slot)
	}

	log.Printf("🎨 [Engine] Run %s regenerating slot %d", e.runID, slot)
	e.applyAndBroadcast(ctx, slot, Patch{
		IsLoading:  boolPtr(true),
		ClearBrief: true,
		ClearError: true,
	})

	anchor := e.nearestEarlierImage(slot)
	angle := ResolveCameraAngle(e.input, e.rng)
	prompt := BuildFinalPrompt(e.input, scene, anchor != nil, angle)
	e.setPrompt(slot, prompt)

	img, err := e.generateWithTimeout(ctx, slot, prompt, anchor)
	if err != nil {
		classified := generr.Classify(slot, err)
		if generr.IsCredential(classified) {
			e.invalidateCredential(ctx)
			e.applyAndBroadcast(ctx, slot, Patch{
				IsLoading: boolPtr(false),
				Error:     strPtr(errMsgCredential),
			})
			return classified
		}
		e.applyAndBroadcast(ctx, slot, Patch{
			IsLoading: boolPtr(false),
			Error:     strPtr(errMsgContentFailure),
		})
		return classified
	}

	e.setSlotImage(slot, &model.ImageRef{Data: img.Data, MimeType: img.MimeType})
	e.applyAndBroadcast(ctx, slot, Patch{
		ImageURL:   strPtr(img.URL),
		MimeType:   strPtr(img.MimeType),
		IsLoading:  boolPtr(false),
		ClearError: true,
	})
	return nil
}

// nearestEarlierImage scans backwards for the closest earlier slot that
// has a successful image, honoring the anchor policy.
func (e *Engine) nearestEarlierImage(slot int) *model.ImageRef {
	if slot == 0 {
		return nil
	}
	if e.anchorPolicy == AnchorPolicyFirstOnly && slot != 1 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := slot - 1; i >= 0; i-- {
		if e.slotImages[i] != nil {
			return e.slotImages[i]
		}
	}
	return nil
}

// SetBrief attaches a generated brief to a slot.
func (e *Engine) SetBrief(ctx context.Context, slot int, brief []byte) {
	e.applyAndBroadcast(ctx, slot, Patch{
		Brief:      brief,
		IsLoading:  boolPtr(false),
		ClearError: true,
	})
}

// SlotImageRef returns the in-memory bytes of a successful slot, used by
// the brief generator.
func (e *Engine) SlotImageRef(slot int) *model.ImageRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot < 0 || slot >= len(e.slotImages) {
		return nil
	}
	return e.slotImages[slot]
}

// AnchorPolicy returns the resolved anchor policy of the run.
func (e *Engine) AnchorPolicy() string { return e.anchorPolicy }

func (e *Engine) setScene(slot int, scene string) {
	e.mu.Lock()
	e.scenes[slot] = scene
	e.mu.Unlock()
}

func (e *Engine) getScene(slot int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot < 0 || slot >= len(e.scenes) {
		return ""
	}
	return e.scenes[slot]
}

func (e *Engine) setPrompt(slot int, prompt string) {
	e.mu.Lock()
	e.prompts[slot] = prompt
	e.mu.Unlock()
}

func (e *Engine) getPrompt(slot int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot < 0 || slot >= len(e.prompts) {
		return ""
	}
	return e.prompts[slot]
}

func (e *Engine) setSlotImage(slot int, ref *model.ImageRef) {
	e.mu.Lock()
	e.slotImages[slot] = ref
	e.mu.Unlock()
}

// applyAndBroadcast merges a patch, persists the slot and notifies
// subscribers. The store write happens first so readers never see an
// event ahead of the state.
func (e *Engine) applyAndBroadcast(ctx context.Context, slot int, p Patch) {
	item, err := e.store.Apply(slot, p)
	if err != nil {
		log.Printf("❌ [Engine] Run %s slot patch failed: %v", e.runID, err)
		return
	}
	if e.recorder != nil {
		e.recorder.RecordSlot(ctx, e.runID, item, e.getPrompt(slot))
	}
	if e.events != nil {
		e.events.SlotUpdated(e.runID, item)
	}
}

// failAllLoading clears every still-loading slot with the given message.
func (e *Engine) failAllLoading(ctx context.Context, message string) {
	for _, item := range e.store.Snapshot() {
		if item.IsLoading {
			e.applyAndBroadcast(ctx, item.SlotIndex, Patch{
				IsLoading: boolPtr(false),
				Error:     strPtr(message),
			})
		}
	}
}

func (e *Engine) invalidateCredential(ctx context.Context) {
	if e.creds != nil {
		e.creds.Invalidate(ctx)
	}
}

func (e *Engine) recordStatus(ctx context.Context, status, errMsg string) {
	if e.recorder != nil {
		e.recorder.RecordStatus(ctx, e.runID, status, errMsg)
	}
}

func (e *Engine) recordProgress(ctx context.Context, completed, failed int) {
	if e.recorder != nil {
		e.recorder.RecordProgress(ctx, e.runID, completed, failed)
	}
}

func (e *Engine) emitRunFailed(message string) {
	if e.events != nil {
		e.events.RunFailed(e.runID, message)
	}
}

// IsValidationError reports whether err is a synchronous config reject.
func IsValidationError(err error) bool {
	var ve *generr.ValidationError
	return errors.As(err, &ve)
}
