package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a scriptable engine for registry tests.
type fakeEngine struct {
	id        string
	available bool
	text      string
	err       error
}

func (f *fakeEngine) ID() string                         { return f.id }
func (f *fakeEngine) Available(_ context.Context) bool   { return f.available }
func (f *fakeEngine) Recognize(_ context.Context, _ string, _ Options) (string, error) {
	return f.text, f.err
}

func TestRegistry_Resolve(t *testing.T) {
	ctx := context.Background()

	newRegistry := func(tesseractUp, visionUp bool) *Registry {
		r := NewRegistry("tesseract")
		require.NoError(t, r.Register(&fakeEngine{id: "tesseract", available: tesseractUp}))
		require.NoError(t, r.Register(&fakeEngine{id: "google-vision", available: visionUp}))
		return r
	}

	t.Run("requested engine wins when available", func(t *testing.T) {
		r := newRegistry(true, true)
		e, ok := r.Resolve(ctx, "google-vision")
		require.True(t, ok)
		assert.Equal(t, "google-vision", e.ID())
	})

	t.Run("unavailable requested engine falls back to default", func(t *testing.T) {
		r := newRegistry(true, false)
		e, ok := r.Resolve(ctx, "google-vision")
		require.True(t, ok)
		assert.Equal(t, "tesseract", e.ID())
	})

	t.Run("unknown requested engine falls back to default", func(t *testing.T) {
		r := newRegistry(true, true)
		e, ok := r.Resolve(ctx, "nonexistent")
		require.True(t, ok)
		assert.Equal(t, "tesseract", e.ID())
	})

	t.Run("unavailable default falls back to any available", func(t *testing.T) {
		r := newRegistry(false, true)
		e, ok := r.Resolve(ctx, "")
		require.True(t, ok)
		assert.Equal(t, "google-vision", e.ID())
	})

	t.Run("nothing available reports false", func(t *testing.T) {
		r := newRegistry(false, false)
		_, ok := r.Resolve(ctx, "")
		assert.False(t, ok)
	})
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := NewRegistry("tesseract")
	require.NoError(t, r.Register(&fakeEngine{id: "tesseract", available: true}))
	assert.Error(t, r.Register(&fakeEngine{id: "tesseract", available: true}))
}

func TestRegistry_Models(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry("tesseract")
	require.NoError(t, r.Register(&fakeEngine{id: "tesseract", available: true}))
	require.NoError(t, r.Register(&fakeEngine{id: "google-vision", available: false}))

	models := r.Models(ctx)
	require.Len(t, models, 2)
	assert.Equal(t, ModelInfo{ID: "tesseract", Available: true, Default: true}, models[0])
	assert.Equal(t, ModelInfo{ID: "google-vision", Available: false, Default: false}, models[1])
}
