package generate

import (
	"context"
	"fmt"
	"sync"

	"affiliate-video-server/modules/common/model"
)

// stubConcepts returns numbered scene concepts, or a fixed error.
type stubConcepts struct {
	err error
}

func (s *stubConcepts) Concepts(_ context.Context, _ *model.RunInput, count int) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, count)
	for i := range out {
		out[i] = fmt.Sprintf("Scene concept %d.", i+1)
	}
	return out, nil
}

// imageCall records what the engine passed for one slot call.
type imageCall struct {
	Slot   int
	Prompt string
	Anchor *model.ImageRef
}

// stubImages succeeds by default and fails where failAt says so. Each
// successful slot returns distinct bytes so anchor threading is
// observable.
type stubImages struct {
	mu     sync.Mutex
	calls  []imageCall
	failAt map[int]error
}

func (s *stubImages) GenerateSlotImage(_ context.Context, _ string, slot int, _ *model.RunInput, prompt string, anchor *model.ImageRef) (*SlotImage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, imageCall{Slot: slot, Prompt: prompt, Anchor: anchor})
	s.mu.Unlock()

	if err, ok := s.failAt[slot]; ok {
		return nil, err
	}
	return &SlotImage{
		URL:      fmt.Sprintf("https://cdn.example/slot-%d.webp", slot),
		MimeType: "image/webp",
		Data:     []byte{byte(slot + 1)},
	}, nil
}

func (s *stubImages) Calls() []imageCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]imageCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// stubCancel flips to cancelled after a given number of checks, or never.
type stubCancel struct {
	mu          sync.Mutex
	checks      int
	cancelAfter int // 0 means never
}

func (s *stubCancel) IsCancelled(_ context.Context, _ string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks++
	return s.cancelAfter > 0 && s.checks > s.cancelAfter
}

// stubEvents records every emitted event.
type stubEvents struct {
	mu        sync.Mutex
	updates   []ResultItem
	completed int
	failed    []string
}

func (s *stubEvents) SlotUpdated(_ string, item ResultItem) {
	s.mu.Lock()
	s.updates = append(s.updates, item)
	s.mu.Unlock()
}

func (s *stubEvents) RunCompleted(string) {
	s.mu.Lock()
	s.completed++
	s.mu.Unlock()
}

func (s *stubEvents) RunFailed(_ string, message string) {
	s.mu.Lock()
	s.failed = append(s.failed, message)
	s.mu.Unlock()
}

// stubRecorder records the status transitions and final progress.
type stubRecorder struct {
	mu        sync.Mutex
	statuses  []string
	completed int
	failedCnt int
	slots     int
}

func (s *stubRecorder) RecordSlot(_ context.Context, _ string, _ ResultItem, _ string) {
	s.mu.Lock()
	s.slots++
	s.mu.Unlock()
}

func (s *stubRecorder) RecordStatus(_ context.Context, _ string, status string, _ string) {
	s.mu.Lock()
	s.statuses = append(s.statuses, status)
	s.mu.Unlock()
}

func (s *stubRecorder) RecordProgress(_ context.Context, _ string, completed int, failed int) {
	s.mu.Lock()
	s.completed = completed
	s.failedCnt = failed
	s.mu.Unlock()
}

// stubCreds flags invalidation.
type stubCreds struct {
	mu          sync.Mutex
	invalidated bool
}

func (s *stubCreds) Invalidate(context.Context) {
	s.mu.Lock()
	s.invalidated = true
	s.mu.Unlock()
}
