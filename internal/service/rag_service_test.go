package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"codexai-go/internal/model"
	"codexai-go/internal/rag"
	"codexai-go/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns canned vectors keyed by text, or a default vector,
// or a configured error.
type fakeEmbedder struct {
	vectors map[string]model.Vector
	def     model.Vector
	err     error
	calls   int
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.def, nil
}

// memoryChunkStore is an in-memory ChunkRepository with the same scope
// semantics as the gorm-backed one.
type memoryChunkStore struct {
	mu     sync.Mutex
	chunks []*model.RagChunk
}

func (m *memoryChunkStore) Put(_ context.Context, chunk *model.RagChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().Add(time.Duration(len(m.chunks)) * time.Millisecond)
	}
	m.chunks = append(m.chunks, chunk)
	return nil
}

func (m *memoryChunkStore) QueryByScope(_ context.Context, sourceType string, tenantID *uint) ([]*model.RagChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sourceType == model.SourceTypePrivateVault && tenantID == nil {
		return nil, &rag.AccessError{Reason: "private-vault query requires a tenant"}
	}
	var out []*model.RagChunk
	for _, c := range m.chunks {
		switch {
		case sourceType == model.SourceTypePrivateVault:
			if c.SourceType == sourceType && c.TenantID != nil && *c.TenantID == *tenantID {
				out = append(out, c)
			}
		case sourceType != "":
			if c.SourceType == sourceType {
				out = append(out, c)
			}
		default:
			if c.SourceType != model.SourceTypePrivateVault {
				out = append(out, c)
			} else if tenantID != nil && c.TenantID != nil && *c.TenantID == *tenantID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *memoryChunkStore) Delete(_ context.Context, chunkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.chunks {
		if c.ID == chunkID {
			m.chunks = append(m.chunks[:i], m.chunks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memoryChunkStore) DeleteByDocument(_ context.Context, documentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.chunks[:0]
	for _, c := range m.chunks {
		if c.DocumentID == nil || *c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return nil
}

func (m *memoryChunkStore) CountBySourceType(_ context.Context, sourceType string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.chunks {
		if c.SourceType == sourceType {
			n++
		}
	}
	return n, nil
}

func defaultOpts() RagOptions {
	return RagOptions{ChunkSize: 500, ChunkOverlap: 100, SearchLimit: 5, Threshold: 0.5}
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("mot%d", i)
	}
	return strings.Join(parts, " ")
}

func uintPtr(v uint) *uint { return &v }

func TestIngestChunkCount(t *testing.T) {
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{def: model.Vector{1, 0, 0}}
	svc := NewRagService(emb, store, nil, nil, defaultOpts())

	err := svc.Ingest(context.Background(), nil, words(1000), model.SourceTypePublicStatute,
		model.ChunkMetadata{"code": "Code Civil"}, nil)
	require.NoError(t, err)

	// 1000 words, window 500, step 400: starts at 0, 400, 800.
	require.Len(t, store.chunks, 3)
	assert.Equal(t, 3, emb.calls)
	for _, c := range store.chunks {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, model.SourceTypePublicStatute, c.SourceType)
		assert.Equal(t, "Code Civil", c.Metadata["code"])
		assert.Nil(t, c.TenantID)
	}
	assert.True(t, strings.HasPrefix(store.chunks[0].ChunkText, "mot0 "))
	assert.True(t, strings.HasSuffix(store.chunks[2].ChunkText, "mot999"))
}

func TestIngestUnknownSourceType(t *testing.T) {
	svc := NewRagService(&fakeEmbedder{def: model.Vector{1}}, &memoryChunkStore{}, nil, nil, defaultOpts())

	err := svc.Ingest(context.Background(), nil, "texte", "wiki", nil, nil)
	var vErr *rag.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestIngestVaultRequiresTenant(t *testing.T) {
	svc := NewRagService(&fakeEmbedder{def: model.Vector{1}}, &memoryChunkStore{}, nil, nil, defaultOpts())

	err := svc.Ingest(context.Background(), nil, "texte", model.SourceTypePrivateVault, nil, nil)
	var aErr *rag.AccessError
	require.ErrorAs(t, err, &aErr)
}

func TestIngestEmbeddingFailureIsHard(t *testing.T) {
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{err: &embedding.ServiceError{Reason: "provider down"}}
	svc := NewRagService(emb, store, nil, nil, defaultOpts())

	err := svc.Ingest(context.Background(), nil, words(10), model.SourceTypePublicStatute, nil, nil)
	require.Error(t, err)
	assert.Empty(t, store.chunks)
}

func TestReingestReplacesChunks(t *testing.T) {
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{def: model.Vector{1, 0, 0}}
	svc := NewRagService(emb, store, nil, nil, defaultOpts())
	docID := uintPtr(7)
	tenant := uintPtr(42)

	require.NoError(t, svc.Ingest(context.Background(), docID, words(1000), model.SourceTypePrivateVault, nil, tenant))
	require.Len(t, store.chunks, 3)
	firstIDs := []string{store.chunks[0].ID, store.chunks[1].ID, store.chunks[2].ID}

	require.NoError(t, svc.Ingest(context.Background(), docID, words(1000), model.SourceTypePrivateVault, nil, tenant))
	require.Len(t, store.chunks, 3)
	for _, c := range store.chunks {
		assert.NotContains(t, firstIDs, c.ID)
	}
}

func TestSearchDegradesOnEmbeddingFailure(t *testing.T) {
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{err: &embedding.ServiceError{Reason: "timeout"}}
	svc := NewRagService(emb, store, nil, nil, defaultOpts())

	result, err := svc.Search(context.Background(), "contrat", model.SourceTypePublicStatute, nil, 5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "", result.Context)
	require.NotNil(t, result.Citations)
	assert.Empty(t, result.Citations)
}

func TestSearchVaultWithoutTenant(t *testing.T) {
	svc := NewRagService(&fakeEmbedder{def: model.Vector{1}}, &memoryChunkStore{}, nil, nil, defaultOpts())

	_, err := svc.Search(context.Background(), "contrat", model.SourceTypePrivateVault, nil, 5, 0.5)
	var aErr *rag.AccessError
	require.ErrorAs(t, err, &aErr)
}

func TestSearchRanksAndAssembles(t *testing.T) {
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{
		def: model.Vector{0, 1, 0},
		vectors: map[string]model.Vector{
			"responsabilité contractuelle": {1, 0, 0},
			"article pertinent":            {1, 0, 0},
			"article voisin":               {0.8, 0.6, 0},
			"article hors sujet":           {0, 0, 1},
		},
	}
	svc := NewRagService(emb, store, nil, nil, RagOptions{ChunkSize: 10, ChunkOverlap: 0, SearchLimit: 5, Threshold: 0.5})

	for _, text := range []string{"article pertinent", "article voisin", "article hors sujet"} {
		require.NoError(t, svc.Ingest(context.Background(), nil, text, model.SourceTypePublicStatute,
			model.ChunkMetadata{"article": "Article 1134", "code": "Code Civil"}, nil))
	}

	result, err := svc.Search(context.Background(), "responsabilité contractuelle", model.SourceTypePublicStatute, nil, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, result.Citations, 2)
	assert.Equal(t, "article pertinent", result.Citations[0].Chunk.ChunkText)
	assert.Equal(t, "article voisin", result.Citations[1].Chunk.ChunkText)
	assert.Equal(t, "Article 1134 du Code Civil", result.Citations[0].Citation)
	assert.Contains(t, result.Context, "[Article 1134 du Code Civil]\narticle pertinent")
	assert.Contains(t, result.Context, "\n\n---\n\n")
}

// Randomized tenant isolation: whatever the corpus looks like, a vault
// search never returns another tenant's chunk.
func TestSearchTenantIsolation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{def: model.Vector{1, 0, 0}}
	svc := NewRagService(emb, store, nil, nil, RagOptions{ChunkSize: 50, ChunkOverlap: 0, SearchLimit: 100, Threshold: 0.0})

	tenants := []uint{1, 2, 3}
	for i := 0; i < 60; i++ {
		tenant := tenants[rng.Intn(len(tenants))]
		text := fmt.Sprintf("document %d du locataire %d", i, tenant)
		require.NoError(t, svc.Ingest(context.Background(), nil, text, model.SourceTypePrivateVault,
			model.ChunkMetadata{"fileName": fmt.Sprintf("doc-%d.txt", i)}, &tenant))
	}

	for _, tenant := range tenants {
		result, err := svc.Search(context.Background(), "locataire", model.SourceTypePrivateVault, &tenant, 100, 0.0)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Citations)
		for _, res := range result.Citations {
			require.NotNil(t, res.Chunk.TenantID)
			assert.Equal(t, tenant, *res.Chunk.TenantID, "tenant %d received chunk of tenant %d", tenant, *res.Chunk.TenantID)
		}
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{def: model.Vector{1, 0, 0}}
	svc := NewRagService(emb, store, nil, nil, RagOptions{ChunkSize: 50, ChunkOverlap: 0, SearchLimit: 2, Threshold: 0.0})

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Ingest(context.Background(), nil, fmt.Sprintf("texte %d", i),
			model.SourceTypePublicCaselaw, nil, nil))
	}

	result, err := svc.Search(context.Background(), "texte", model.SourceTypePublicCaselaw, nil, 0, 0.0)
	require.NoError(t, err)
	assert.Len(t, result.Citations, 2)
}

// alwaysFailingIndex simulates an unavailable candidate index.
type alwaysFailingIndex struct{}

func (alwaysFailingIndex) IndexChunk(context.Context, *model.RagChunk) error { return nil }
func (alwaysFailingIndex) DeleteByDocument(context.Context, uint) error      { return nil }
func (alwaysFailingIndex) SearchCandidates(context.Context, model.Vector, string, *uint, int) ([]*model.RagChunk, error) {
	return nil, fmt.Errorf("index unavailable")
}

func TestSearchFallsBackToStoreScan(t *testing.T) {
	store := &memoryChunkStore{}
	emb := &fakeEmbedder{def: model.Vector{1, 0, 0}}
	svc := NewRagService(emb, store, nil, alwaysFailingIndex{}, RagOptions{ChunkSize: 50, ChunkOverlap: 0, SearchLimit: 5, Threshold: 0.0})

	require.NoError(t, svc.Ingest(context.Background(), nil, "texte unique", model.SourceTypePublicStatute, nil, nil))

	result, err := svc.Search(context.Background(), "texte unique", model.SourceTypePublicStatute, nil, 5, 0.0)
	require.NoError(t, err)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "texte unique", result.Citations[0].Chunk.ChunkText)
}
