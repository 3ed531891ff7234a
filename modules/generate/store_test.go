package generate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(n int) *Store {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "result-" + string(rune('a'+i))
	}
	return NewStore(ids)
}

func TestNewStoreAllLoading(t *testing.T) {
	s := newTestStore(3)
	require.Equal(t, 3, s.Len())

	for i, item := range s.Snapshot() {
		assert.Equal(t, i, item.SlotIndex)
		assert.True(t, item.IsLoading)
		assert.Empty(t, item.ImageURL)
		assert.Empty(t, item.Error)
	}
}

func TestApplyMergesOnlyPatchedFields(t *testing.T) {
	s := newTestStore(2)

	item, err := s.Apply(0, Patch{
		ImageURL:  strPtr("https://cdn.example/img.webp"),
		MimeType:  strPtr("image/webp"),
		IsLoading: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.webp", item.ImageURL)
	assert.False(t, item.IsLoading)

	// A later error patch must keep the earlier image URL.
	item, err = s.Apply(0, Patch{Error: strPtr("boom")})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.webp", item.ImageURL)
	assert.Equal(t, "boom", item.Error)
}

func TestApplyIsolatedPerSlot(t *testing.T) {
	s := newTestStore(3)

	_, err := s.Apply(1, Patch{IsLoading: boolPtr(false), Error: strPtr("failed")})
	require.NoError(t, err)

	first, _ := s.Item(0)
	third, _ := s.Item(2)
	assert.True(t, first.IsLoading)
	assert.True(t, third.IsLoading)
	assert.Empty(t, first.Error)
}

func TestApplyClearFlags(t *testing.T) {
	s := newTestStore(1)

	_, err := s.Apply(0, Patch{
		Brief: json.RawMessage(`{"script":"halo"}`),
		Error: strPtr("stale"),
	})
	require.NoError(t, err)

	item, err := s.Apply(0, Patch{ClearBrief: true, ClearError: true})
	require.NoError(t, err)
	assert.Nil(t, item.Brief)
	assert.Empty(t, item.Error)
}

func TestApplyOutOfRange(t *testing.T) {
	s := newTestStore(2)

	_, err := s.Apply(2, Patch{})
	assert.Error(t, err)
	_, err = s.Apply(-1, Patch{})
	assert.Error(t, err)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestStore(1)

	snap := s.Snapshot()
	snap[0].Error = "mutated"

	item, _ := s.Item(0)
	assert.Empty(t, item.Error)
}
