package generate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"affiliate-video-server/modules/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, slots int, mutate func(*EngineConfig)) (*Engine, *stubImages, *stubEvents, *stubRecorder, *stubCreds) {
	t.Helper()

	ids := make([]string, slots)
	for i := range ids {
		ids[i] = "result-" + string(rune('a'+i))
	}

	images := &stubImages{failAt: map[int]error{}}
	events := &stubEvents{}
	recorder := &stubRecorder{}
	creds := &stubCreds{}

	in := testInput()
	in.NumConcepts = slots

	cfg := EngineConfig{
		RunID:       "run-1",
		Input:       in,
		SlotIDs:     ids,
		Concepts:    &stubConcepts{},
		Images:      images,
		Cancel:      &stubCancel{},
		Events:      events,
		Recorder:    recorder,
		Credentials: creds,
		Sleep:       func(time.Duration) {},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewEngine(cfg), images, events, recorder, creds
}

func TestRunHappyPathChainsAnchor(t *testing.T) {
	engine, images, events, recorder, _ := newTestEngine(t, 3, nil)

	require.NoError(t, engine.Run(context.Background()))
	assert.Equal(t, model.StatusCompleted, engine.Status())
	assert.Equal(t, 1, events.completed)

	calls := images.Calls()
	require.Len(t, calls, 3)
	assert.Nil(t, calls[0].Anchor)
	require.NotNil(t, calls[1].Anchor)
	assert.Equal(t, []byte{1}, calls[1].Anchor.Data)
	require.NotNil(t, calls[2].Anchor)
	assert.Equal(t, []byte{2}, calls[2].Anchor.Data)

	for _, item := range engine.Store().Snapshot() {
		assert.False(t, item.IsLoading)
		assert.NotEmpty(t, item.ImageURL)
		assert.Empty(t, item.Error)
	}
	assert.Equal(t, 3, recorder.completed)
	assert.Equal(t, 0, recorder.failedCnt)
}

func TestRunFirstOnlyAnchor(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 3, func(cfg *EngineConfig) {
		cfg.DefaultAnchorPolicy = AnchorPolicyFirstOnly
	})

	require.NoError(t, engine.Run(context.Background()))

	calls := images.Calls()
	require.Len(t, calls, 3)
	assert.Nil(t, calls[0].Anchor)
	require.NotNil(t, calls[1].Anchor)
	assert.Equal(t, []byte{1}, calls[1].Anchor.Data)
	assert.Nil(t, calls[2].Anchor)
}

func TestStorytellingForcesChain(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(t, 2, func(cfg *EngineConfig) {
		cfg.DefaultAnchorPolicy = AnchorPolicyFirstOnly
		cfg.Input.Storytelling = true
	})
	assert.Equal(t, AnchorPolicyChain, engine.AnchorPolicy())
}

func TestInvalidAnchorPolicyFallsBackToChain(t *testing.T) {
	engine, _, _, _, _ := newTestEngine(t, 2, func(cfg *EngineConfig) {
		cfg.Input.AnchorPolicy = "every-other"
	})
	assert.Equal(t, AnchorPolicyChain, engine.AnchorPolicy())
}

func TestRunPerItemFailureKeepsAnchor(t *testing.T) {
	engine, images, events, recorder, _ := newTestEngine(t, 3, func(cfg *EngineConfig) {
		cfg.Images.(*stubImages).failAt[1] = errors.New("safety filter blocked the request")
	})

	require.NoError(t, engine.Run(context.Background()))
	assert.Equal(t, model.StatusCompleted, engine.Status())
	assert.Equal(t, 1, events.completed)

	calls := images.Calls()
	require.Len(t, calls, 3)
	// Slot 2 still anchors on slot 0's image, the failure never advanced it.
	require.NotNil(t, calls[2].Anchor)
	assert.Equal(t, []byte{1}, calls[2].Anchor.Data)

	failedItem, _ := engine.Store().Item(1)
	assert.Equal(t, errMsgContentFailure, failedItem.Error)
	assert.Empty(t, failedItem.ImageURL)

	okItem, _ := engine.Store().Item(2)
	assert.Empty(t, okItem.Error)
	assert.NotEmpty(t, okItem.ImageURL)

	assert.Equal(t, 2, recorder.completed)
	assert.Equal(t, 1, recorder.failedCnt)
}

func TestRunCredentialErrorAborts(t *testing.T) {
	engine, images, events, _, creds := newTestEngine(t, 4, func(cfg *EngineConfig) {
		cfg.Images.(*stubImages).failAt[1] = errors.New("API key not valid. Please pass a valid API key.")
	})

	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, engine.Status())
	assert.True(t, creds.invalidated)
	assert.Len(t, events.failed, 1)

	// Slots 2 and 3 were never attempted.
	assert.Len(t, images.Calls(), 2)

	for i := 1; i < 4; i++ {
		item, _ := engine.Store().Item(i)
		assert.Equal(t, errMsgCredential, item.Error, "slot %d", i)
		assert.False(t, item.IsLoading)
	}
	// Slot 0 succeeded before the abort and keeps its image.
	first, _ := engine.Store().Item(0)
	assert.NotEmpty(t, first.ImageURL)
	assert.Empty(t, first.Error)
}

func TestRunCancellationStopsLoop(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 3, func(cfg *EngineConfig) {
		cfg.Cancel = &stubCancel{cancelAfter: 1}
	})

	require.NoError(t, engine.Run(context.Background()))
	assert.Equal(t, model.StatusUserCancelled, engine.Status())

	// Only the first slot was generated before the flag was seen.
	assert.Len(t, images.Calls(), 1)

	first, _ := engine.Store().Item(0)
	assert.NotEmpty(t, first.ImageURL)
	for i := 1; i < 3; i++ {
		item, _ := engine.Store().Item(i)
		assert.Equal(t, errMsgStopped, item.Error)
		assert.False(t, item.IsLoading)
	}
}

func TestRunDelaySkippedAfterLast(t *testing.T) {
	sleeps := 0
	engine, _, _, _, _ := newTestEngine(t, 3, func(cfg *EngineConfig) {
		cfg.InterCallDelay = time.Second
		cfg.Sleep = func(d time.Duration) {
			assert.Equal(t, time.Second, d)
			sleeps++
		}
	})

	require.NoError(t, engine.Run(context.Background()))
	assert.Equal(t, 2, sleeps)
}

func TestRunValidationFailure(t *testing.T) {
	engine, images, events, _, _ := newTestEngine(t, 2, func(cfg *EngineConfig) {
		cfg.Input.ProductImages = nil
	})

	err := engine.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, model.StatusFailed, engine.Status())
	assert.Empty(t, images.Calls())
	assert.Len(t, events.failed, 1)
}

func TestRunConceptFailure(t *testing.T) {
	engine, images, _, _, creds := newTestEngine(t, 2, func(cfg *EngineConfig) {
		cfg.Concepts = &stubConcepts{err: errors.New("model returned garbage")}
	})

	require.Error(t, engine.Run(context.Background()))
	assert.Equal(t, model.StatusFailed, engine.Status())
	assert.False(t, creds.invalidated)
	assert.Empty(t, images.Calls())

	for _, item := range engine.Store().Snapshot() {
		assert.Equal(t, errMsgConceptsFailure, item.Error)
	}
}

func TestRunConceptCredentialFailure(t *testing.T) {
	engine, _, _, _, creds := newTestEngine(t, 2, func(cfg *EngineConfig) {
		cfg.Concepts = &stubConcepts{err: errors.New("PERMISSION_DENIED: permission denied for project")}
	})

	require.Error(t, engine.Run(context.Background()))
	assert.True(t, creds.invalidated)
	for _, item := range engine.Store().Snapshot() {
		assert.Equal(t, errMsgCredential, item.Error)
	}
}

func TestRegenerateSlotRebuildsPromptWithNearestAnchor(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 3, nil)
	require.NoError(t, engine.Run(context.Background()))

	engine.SetBrief(context.Background(), 2, json.RawMessage(`{"old":true}`))

	require.NoError(t, engine.RegenerateSlot(context.Background(), 2))

	calls := images.Calls()
	require.Len(t, calls, 4)
	regen := calls[3]
	assert.Equal(t, 2, regen.Slot)
	require.NotNil(t, regen.Anchor)
	assert.Equal(t, []byte{2}, regen.Anchor.Data)
	// Rebuilt from the slot's scene concept with the anchor instruction.
	assert.Contains(t, regen.Prompt, "Scene concept 3.")
	assert.Contains(t, regen.Prompt, "IMAGE 3")

	item, _ := engine.Store().Item(2)
	assert.Nil(t, item.Brief)
	assert.False(t, item.IsLoading)
	assert.Empty(t, item.Error)
}

func TestRegenerateAfterSlotZeroFailureRebuildsAnchorInstruction(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 2, func(cfg *EngineConfig) {
		cfg.Images.(*stubImages).failAt[0] = errors.New("blocked")
	})
	require.NoError(t, engine.Run(context.Background()))

	// During the run slot 1 had no anchor and no anchor instruction.
	calls := images.Calls()
	require.Len(t, calls, 2)
	assert.Nil(t, calls[1].Anchor)
	assert.NotContains(t, calls[1].Prompt, "IMAGE 3")

	images.mu.Lock()
	delete(images.failAt, 0)
	images.mu.Unlock()

	require.NoError(t, engine.RegenerateSlot(context.Background(), 0))

	calls = images.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, 0, calls[2].Slot)
	assert.Nil(t, calls[2].Anchor)

	// The cascaded slot 1 now carries slot 0's fresh image AND a prompt
	// that mentions it.
	cascade := calls[3]
	assert.Equal(t, 1, cascade.Slot)
	require.NotNil(t, cascade.Anchor)
	assert.Equal(t, []byte{1}, cascade.Anchor.Data)
	assert.Contains(t, cascade.Prompt, "IMAGE 3")
}

func TestRegenerateSlotZeroFailureSkipsCascade(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 3, nil)
	require.NoError(t, engine.Run(context.Background()))
	engine.SetBrief(context.Background(), 1, json.RawMessage(`{"keep":true}`))

	images.mu.Lock()
	images.failAt[0] = errors.New("blocked")
	images.mu.Unlock()

	require.NoError(t, engine.RegenerateSlot(context.Background(), 0))

	// Only the failed slot-0 attempt, no cascade calls.
	calls := images.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, 0, calls[3].Slot)

	first, _ := engine.Store().Item(0)
	assert.Equal(t, errMsgContentFailure, first.Error)

	// The later slots stay untouched, briefs included.
	second, _ := engine.Store().Item(1)
	assert.NotEmpty(t, second.ImageURL)
	assert.NotNil(t, second.Brief)
	assert.Empty(t, second.Error)
}

func TestRegenerateSlotZeroCascadesChain(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 3, nil)
	require.NoError(t, engine.Run(context.Background()))

	for i := 0; i < 3; i++ {
		engine.SetBrief(context.Background(), i, json.RawMessage(`{"b":1}`))
	}

	require.NoError(t, engine.RegenerateSlot(context.Background(), 0))

	calls := images.Calls()
	require.Len(t, calls, 6)
	assert.Equal(t, 0, calls[3].Slot)
	assert.Equal(t, 1, calls[4].Slot)
	assert.Equal(t, 2, calls[5].Slot)

	for i := 0; i < 3; i++ {
		item, _ := engine.Store().Item(i)
		assert.Nil(t, item.Brief, "slot %d brief must be cleared", i)
	}
}

func TestRegenerateSlotZeroCascadesFirstOnly(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 3, func(cfg *EngineConfig) {
		cfg.DefaultAnchorPolicy = AnchorPolicyFirstOnly
	})
	require.NoError(t, engine.Run(context.Background()))

	require.NoError(t, engine.RegenerateSlot(context.Background(), 0))

	calls := images.Calls()
	// 3 from the run, then slots 0 and 1 only.
	require.Len(t, calls, 5)
	assert.Equal(t, 0, calls[3].Slot)
	assert.Equal(t, 1, calls[4].Slot)
}

func TestRegenerateSlotCredentialError(t *testing.T) {
	engine, images, _, _, creds := newTestEngine(t, 2, nil)
	require.NoError(t, engine.Run(context.Background()))

	images.mu.Lock()
	images.failAt[1] = errors.New("the API key is invalid")
	images.mu.Unlock()

	err := engine.RegenerateSlot(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, creds.invalidated)

	item, _ := engine.Store().Item(1)
	assert.Equal(t, errMsgCredential, item.Error)
}

func TestRegenerateSlotWithoutPrompt(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 2, nil)

	// Never ran, so no prompt was recorded. The reject is a per-item
	// failure, not a returned error.
	require.NoError(t, engine.RegenerateSlot(context.Background(), 1))
	assert.Empty(t, images.Calls())

	item, _ := engine.Store().Item(1)
	assert.Equal(t, errMsgPromptNotFound, item.Error)
}

func TestRegenerateNearestEarlierSkipsFailedSlot(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 3, func(cfg *EngineConfig) {
		cfg.Images.(*stubImages).failAt[1] = errors.New("blocked")
	})
	require.NoError(t, engine.Run(context.Background()))

	images.mu.Lock()
	delete(images.failAt, 1)
	images.mu.Unlock()

	require.NoError(t, engine.RegenerateSlot(context.Background(), 2))

	calls := images.Calls()
	regen := calls[len(calls)-1]
	require.NotNil(t, regen.Anchor)
	// Slot 1 failed during the run, so slot 0's image is the anchor.
	assert.Equal(t, []byte{1}, regen.Anchor.Data)
}

func TestNormalizeInputDefaults(t *testing.T) {
	in := &model.RunInput{}
	NormalizeInput(in)

	assert.Equal(t, 6, in.NumConcepts)
	assert.Equal(t, 100, in.FaceStrength)
	assert.Equal(t, 100, in.ProductStrength)
	assert.Equal(t, "Simpel", in.VoiceoverStyle)
	assert.Equal(t, "placed", in.PresentationStyle)
}

func TestValidateInputRejects(t *testing.T) {
	noFace := testInput()
	noFace.CroppedFace = nil
	assert.Error(t, validateInput(noFace))

	tooMany := testInput()
	tooMany.NumConcepts = 11
	assert.Error(t, validateInput(tooMany))

	badStrength := testInput()
	badStrength.FaceStrength = 120
	assert.Error(t, validateInput(badStrength))

	ok := testInput()
	ok.NumConcepts = 6
	assert.NoError(t, validateInput(ok))
}

func TestRegenerateSlotTwoFailedDuringRunUsesContentMessage(t *testing.T) {
	engine, images, _, _, _ := newTestEngine(t, 2, nil)
	require.NoError(t, engine.Run(context.Background()))

	images.mu.Lock()
	images.failAt[1] = errors.New("internal error")
	images.mu.Unlock()

	// Per-item failure: RegenerateSlot itself returns nil.
	require.NoError(t, engine.RegenerateSlot(context.Background(), 1))

	item, _ := engine.Store().Item(1)
	assert.Equal(t, errMsgContentFailure, item.Error)
	assert.False(t, item.IsLoading)
}
