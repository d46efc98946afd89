package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilderBasic(t *testing.T) {
	t.Parallel()

	base := NewStd("disk is full")
	ee := New(base).
		Component("notestore").
		Category(CategoryStorageWrite).
		Context("note_id", "1700000000000").
		Build()

	assert.Equal(t, "disk is full", ee.Error())
	assert.Equal(t, "notestore", ee.GetComponent())
	assert.Equal(t, string(CategoryStorageWrite), ee.GetCategory())
	require.NotNil(t, ee.GetContext())
	assert.Equal(t, "1700000000000", ee.GetContext()["note_id"])
	assert.False(t, ee.GetTimestamp().IsZero())
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("note not found")
	wrapped := New(fmt.Errorf("lookup failed: %w", sentinel)).
		Category(CategoryNotFound).
		Build()

	assert.True(t, Is(wrapped, sentinel))

	var ee *EnhancedError
	require.True(t, As(wrapped, &ee))
	assert.Equal(t, CategoryNotFound, ee.Category)
}

func TestIsCategory(t *testing.T) {
	t.Parallel()

	readErr := Newf("failed to load notes").Category(CategoryStorageRead).Build()
	assert.True(t, IsCategory(readErr, CategoryStorageRead))
	assert.False(t, IsCategory(readErr, CategoryStorageWrite))
	assert.False(t, IsCategory(NewStd("plain"), CategoryStorageRead))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFound(Newf("no note with id").Category(CategoryNotFound).Build()))
	assert.False(t, IsNotFound(NewStd("something else")))
}

func TestCategoryDetectionHeuristics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"permission", NewStd("microphone permission refused"), CategoryPermission},
		{"not found", NewStd("clip not found"), CategoryNotFound},
		{"database", NewStd("sqlite is locked"), CategoryDatabase},
		{"device", NewStd("capture device is busy"), CategoryAudioDevice},
		{"generic", NewStd("something odd"), CategoryGeneric},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ee := New(tt.err).Build()
			assert.Equal(t, tt.want, ee.Category)
		})
	}
}

func TestPriorityValidation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PriorityHigh, Newf("x").Priority(PriorityHigh).Build().GetPriority())
	// Invalid priority falls back to medium
	assert.Equal(t, PriorityMedium, Newf("x").Priority("urgent-ish").Build().GetPriority())
	assert.Empty(t, Newf("x").Build().GetPriority())
}

func TestEnhancedErrorIsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := Newf("a").Category(CategoryAudioMissing).Build()
	b := Newf("b").Category(CategoryAudioMissing).Build()
	c := Newf("c").Category(CategoryState).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}
