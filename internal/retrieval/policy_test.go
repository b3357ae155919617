package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// fakeEngine maps known texts to fixed vectors so similarity ordering
// is fully deterministic.
type fakeEngine struct {
	vectors map[string][]float32
}

func (f *fakeEngine) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return 3 }
func (f *fakeEngine) Name() string    { return "fake" }

func TestSplitSections(t *testing.T) {
	corpus := "## Baggage\nTwo bags allowed.\n\n## Refunds\nRefunds within 24 hours.\n\n## Pets\nSmall pets in cabin."
	got := SplitSections(corpus)
	want := []string{
		"## Baggage\nTwo bags allowed.",
		"## Refunds\nRefunds within 24 hours.",
		"## Pets\nSmall pets in cabin.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitSections mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitSectionsPreamble(t *testing.T) {
	corpus := "Swiss Airlines policy manual.\n\n## Baggage\nTwo bags allowed.\n"
	got := SplitSections(corpus)
	want := []string{
		"Swiss Airlines policy manual.",
		"## Baggage\nTwo bags allowed.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitSections mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitSectionsEmpty(t *testing.T) {
	if got := SplitSections(""); got != nil {
		t.Errorf("expected nil for empty corpus, got %v", got)
	}
	if got := SplitSections("\n\n  \n"); got != nil {
		t.Errorf("expected nil for blank corpus, got %v", got)
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	docs := []string{"baggage", "refunds", "pets", "checkin"}
	engine := &fakeEngine{vectors: map[string][]float32{
		"baggage": {1, 0, 0},
		"refunds": {0, 1, 0},
		"pets":    {0, 0, 1},
		"checkin": {0.6, 0.8, 0},
		// Queries.
		"how many bags":     {1, 0, 0},
		"equidistant query": {0, 0.7071, 0.7071},
	}}
	ix, err := Build(context.Background(), docs, engine)
	require.NoError(t, err)
	return ix
}

func TestQueryRanksByDescendingSimilarity(t *testing.T) {
	ix := newTestIndex(t)

	hits, err := ix.Query(context.Background(), "how many bags", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "baggage", hits[0].Content)
	require.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	require.Equal(t, "checkin", hits[1].Content)
	require.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestQueryTiesKeepDocumentOrder(t *testing.T) {
	ix := newTestIndex(t)

	// "refunds" and "pets" score identically against this query;
	// "refunds" appears earlier in the corpus so it must come first.
	hits, err := ix.Query(context.Background(), "equidistant query", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "refunds", hits[0].Content)
	require.Equal(t, "pets", hits[1].Content)
	require.InDelta(t, hits[0].Similarity, hits[1].Similarity, 1e-6)
}

func TestQueryLargeKReturnsAll(t *testing.T) {
	ix := newTestIndex(t)

	hits, err := ix.Query(context.Background(), "how many bags", 50)
	require.NoError(t, err)
	require.Len(t, hits, ix.Len())
	for i := 1; i < len(hits); i++ {
		require.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}
}

func TestQueryZeroK(t *testing.T) {
	ix := newTestIndex(t)
	hits, err := ix.Query(context.Background(), "how many bags", 0)
	require.NoError(t, err)
	require.Nil(t, hits)
}

func TestLookupJoinsTopTwo(t *testing.T) {
	ix := newTestIndex(t)

	got, err := ix.Lookup(context.Background(), "how many bags")
	require.NoError(t, err)
	require.Equal(t, "baggage\n\ncheckin", got)
}

func TestLookupEmptyCorpus(t *testing.T) {
	ix, err := Build(context.Background(), nil, &fakeEngine{})
	require.NoError(t, err)

	got, err := ix.Lookup(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestBuildPropagatesEmbedErrors(t *testing.T) {
	_, err := Build(context.Background(), []string{"unknown"}, &fakeEngine{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to embed document 0")
}

func TestLoadCorpusHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "## Baggage\nTwo bags.")
	}))
	defer srv.Close()

	got, err := LoadCorpus(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "## Baggage\nTwo bags.", got)
}

func TestLoadCorpusHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := LoadCorpus(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
}
