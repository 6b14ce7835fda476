package face

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	id        string
	available bool
	result    Result
	err       error
	calls     int
}

func (f *fakeBackend) ID() string                     { return f.id }
func (f *fakeBackend) Available(context.Context) bool { return f.available }
func (f *fakeBackend) Compare(context.Context, string, string) (Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestChain(t *testing.T, backends ...Backend) *Chain {
	t.Helper()
	chain := NewChain(slog.Default())
	for _, b := range backends {
		require.NoError(t, chain.Register(b))
	}
	return chain
}

func TestChain_FirstAvailableBackendWins(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: true, result: Result{Similarity: 0.91, IDHasFace: true, SelfieHasFace: true}}
	local := &fakeBackend{id: "deepface", available: true, result: Result{Similarity: 0.55}}
	chain := newTestChain(t, cloud, local)

	result, backend := chain.Compare(context.Background(), "id.jpg", "selfie.jpg", "")

	assert.Equal(t, "google-vision", backend)
	assert.InDelta(t, 0.91, result.Similarity, 1e-9)
	assert.Zero(t, local.calls)
}

func TestChain_UnavailableBackendSkipped(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: false}
	local := &fakeBackend{id: "deepface", available: true, result: Result{Similarity: 0.72, IDHasFace: true, SelfieHasFace: true}}
	chain := newTestChain(t, cloud, local)

	result, backend := chain.Compare(context.Background(), "id.jpg", "selfie.jpg", "")

	assert.Equal(t, "deepface", backend)
	assert.InDelta(t, 0.72, result.Similarity, 1e-9)
	assert.Zero(t, cloud.calls)
}

func TestChain_ErroringBackendFallsThrough(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: true, err: errors.New("quota exhausted")}
	local := &fakeBackend{id: "deepface", available: true, result: Result{Similarity: 0.64}}
	chain := newTestChain(t, cloud, local)

	result, backend := chain.Compare(context.Background(), "id.jpg", "selfie.jpg", "")

	assert.Equal(t, "deepface", backend)
	assert.InDelta(t, 0.64, result.Similarity, 1e-9)
	assert.Equal(t, 1, cloud.calls)
}

func TestChain_PreferredBackendTriedFirst(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: true, result: Result{Similarity: 0.91}}
	local := &fakeBackend{id: "insightface", available: true, result: Result{Similarity: 0.66}}
	chain := newTestChain(t, cloud, local)

	_, backend := chain.Compare(context.Background(), "id.jpg", "selfie.jpg", "insightface")
	assert.Equal(t, "insightface", backend)
}

func TestChain_PreferredFailureFallsBackToOrder(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: true, result: Result{Similarity: 0.91}}
	local := &fakeBackend{id: "insightface", available: true, err: errors.New("model load failed")}
	chain := newTestChain(t, cloud, local)

	_, backend := chain.Compare(context.Background(), "id.jpg", "selfie.jpg", "insightface")
	assert.Equal(t, "google-vision", backend)
}

func TestChain_UnknownPreferredIgnored(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: true, result: Result{Similarity: 0.91}}
	chain := newTestChain(t, cloud)

	_, backend := chain.Compare(context.Background(), "id.jpg", "selfie.jpg", "no-such-model")
	assert.Equal(t, "google-vision", backend)
}

func TestChain_AllBackendsFailIsClosed(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: false}
	local := &fakeBackend{id: "deepface", available: true, err: errors.New("no face found")}
	chain := newTestChain(t, cloud, local)

	result, backend := chain.Compare(context.Background(), "id.jpg", "selfie.jpg", "")

	assert.Empty(t, backend)
	assert.Zero(t, result.Similarity)
	assert.False(t, result.IDHasFace)
	assert.False(t, result.SelfieHasFace)
}

func TestChain_DuplicateRegistrationRejected(t *testing.T) {
	chain := NewChain(slog.Default())
	require.NoError(t, chain.Register(&fakeBackend{id: "deepface"}))
	require.Error(t, chain.Register(&fakeBackend{id: "deepface"}))
}

func TestChain_ModelCatalog(t *testing.T) {
	cloud := &fakeBackend{id: "google-vision", available: true}
	local := &fakeBackend{id: "deepface", available: false}
	chain := newTestChain(t, cloud, local)

	models := chain.Models(context.Background())
	require.Len(t, models, 2)
	assert.True(t, models[0].Default)
	assert.True(t, models[0].Available)
	assert.False(t, models[1].Default)
	assert.False(t, models[1].Available)
}
